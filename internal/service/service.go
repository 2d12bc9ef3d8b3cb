// Package service orchestrates the POS use cases on top of the
// repository: per-operator carts, checkout settlement, voids, staff and
// catalog administration, and the daily summary. Permission checks live
// here; the repository only enforces data invariants.
package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"veira/backend/internal/ai"
	"veira/backend/internal/cache"
	"veira/backend/internal/cart"
	"veira/backend/internal/domain"
	"veira/backend/internal/pricing"
	"veira/backend/internal/receipt"
	"veira/backend/internal/store"
	syncx "veira/backend/internal/sync"
	"veira/backend/internal/xid"
)

// ErrPermissionDenied marks an operation the authenticated operator's
// role does not allow. It maps to 403 at the HTTP layer.
var ErrPermissionDenied = errors.New("permission denied")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const defaultLowStockThreshold = 10

type Service struct {
	repo          store.Repository
	log           *zap.Logger
	summarizer    ai.Summarizer
	summaryCache  cache.SummaryCache
	defaultBranch string
	taxRate       float64
	summaryTTL    time.Duration

	cartMu sync.Mutex
	carts  map[string]*cart.Cart // keyed by operator staff ID
}

func New(repo store.Repository, logger *zap.Logger, summarizer ai.Summarizer, summaryCache cache.SummaryCache, defaultBranch string, taxRate float64, summaryTTL time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if summarizer == nil {
		summarizer = ai.TemplateSummarizer{}
	}
	if summaryCache == nil {
		summaryCache = cache.NoopSummaryCache{}
	}
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	if taxRate < 0 {
		taxRate = 0
	}
	if summaryTTL <= 0 {
		summaryTTL = 15 * time.Minute
	}

	return &Service{
		repo:          repo,
		log:           logger,
		summarizer:    summarizer,
		summaryCache:  summaryCache,
		defaultBranch: defaultBranch,
		taxRate:       taxRate,
		summaryTTL:    summaryTTL,
		carts:         make(map[string]*cart.Cart),
	}
}

func (s *Service) requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrPermissionDenied
	}
	return actor, nil
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return actor, nil
}

func (s *Service) branchOrDefault(branchID string) string {
	if branchID == "" {
		return s.defaultBranch
	}
	return branchID
}

// --- Catalog ---

func (s *Service) ListProducts(ctx context.Context, branchID string) ([]domain.ProductWithStock, error) {
	return s.repo.ListProducts(ctx, s.branchOrDefault(branchID))
}

func (s *Service) GetProduct(ctx context.Context, branchID string, id string) (*domain.ProductWithStock, error) {
	return s.repo.GetProduct(ctx, s.branchOrDefault(branchID), id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", store.ErrValidation)
	}
	if req.PriceCents < 1 || req.CostCents < 0 || req.InitialStock < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be positive; cost and stock must not be negative", store.ErrValidation)
	}

	product := domain.Product{
		ID:                xid.New("prod"),
		Name:              req.Name,
		Category:          req.Category,
		PriceCents:        req.PriceCents,
		CostCents:         req.CostCents,
		LowStockThreshold: req.LowStockThreshold,
	}

	created, err := s.repo.CreateProduct(ctx, product, s.branchOrDefault(req.BranchID), req.InitialStock)
	if err != nil {
		return domain.Product{}, err
	}

	s.logActivity(ctx, actor, "product_create", fmt.Sprintf("%s (price=%d, stock=%d)", created.Name, created.PriceCents, req.InitialStock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, branchID string, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, s.branchOrDefault(branchID), id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := existing.Product
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name is required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, fmt.Errorf("%w: price must be positive", store.ErrValidation)
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return domain.Product{}, fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
		}
		updated.CostCents = *req.CostCents
	}
	if req.LowStockThreshold != nil {
		updated.LowStockThreshold = *req.LowStockThreshold
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logActivity(ctx, actor, "product_update", fmt.Sprintf("%s (price=%d)", saved.Name, saved.PriceCents))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	product, err := s.repo.GetProduct(ctx, s.defaultBranch, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, actor, "product_delete", product.Name)
	return nil
}

func (s *Service) Restock(ctx context.Context, branchID string, productID string, req domain.RestockRequest) (*domain.ProductWithStock, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	branch := s.branchOrDefault(firstNonEmpty(req.BranchID, branchID))
	level, err := s.repo.IncreaseStock(ctx, branch, productID, req.Qty)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, branch, productID)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, actor, "restock", fmt.Sprintf("%s +%d (now %d)", product.Name, req.Qty, level))
	return product, nil
}

// LowStock returns products at or below their reorder threshold.
func (s *Service) LowStock(ctx context.Context, branchID string) ([]domain.ProductWithStock, error) {
	products, err := s.repo.ListProducts(ctx, s.branchOrDefault(branchID))
	if err != nil {
		return nil, err
	}

	low := make([]domain.ProductWithStock, 0, 8)
	for _, p := range products {
		threshold := p.LowStockThreshold
		if threshold <= 0 {
			threshold = defaultLowStockThreshold
		}
		if p.Stock <= threshold {
			low = append(low, p)
		}
	}
	return low, nil
}

// --- Cart ---

// CartView is the cart read model returned to the UI: the lines plus a
// running totals preview at the configured tax rate with no discount.
type CartView struct {
	Lines  []domain.CartLine `json:"lines"`
	Totals domain.Totals     `json:"totals"`
}

// cartForLocked returns the operator's cart; the caller must hold
// cartMu, which also serializes all mutations of the cart itself.
func (s *Service) cartForLocked(staffID string) *cart.Cart {
	c, ok := s.carts[staffID]
	if !ok {
		c = cart.New()
		s.carts[staffID] = c
	}
	return c
}

func (s *Service) cartView(c *cart.Cart) CartView {
	lines := c.Lines()
	return CartView{
		Lines:  lines,
		Totals: pricing.ComputeTotals(lines, domain.DiscountConfig{}, s.taxRate),
	}
}

func (s *Service) GetCart(ctx context.Context) (CartView, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return CartView{}, err
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	return s.cartView(s.cartForLocked(actor.ID)), nil
}

func (s *Service) AddToCart(ctx context.Context, branchID string, productID string, qty int) (CartView, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return CartView{}, err
	}

	product, err := s.repo.GetProduct(ctx, s.branchOrDefault(branchID), productID)
	if err != nil {
		return CartView{}, err
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	c := s.cartForLocked(actor.ID)
	if err := c.AddItem(*product, qty); err != nil {
		return CartView{}, err
	}
	return s.cartView(c), nil
}

func (s *Service) UpdateCartItem(ctx context.Context, branchID string, productID string, qty int) (CartView, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return CartView{}, err
	}

	product, err := s.repo.GetProduct(ctx, s.branchOrDefault(branchID), productID)
	if err != nil {
		return CartView{}, err
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	c := s.cartForLocked(actor.ID)
	if err := c.SetQuantity(productID, qty, product.Stock); err != nil {
		return CartView{}, err
	}
	return s.cartView(c), nil
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (CartView, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return CartView{}, err
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	c := s.cartForLocked(actor.ID)
	c.RemoveItem(productID)
	return s.cartView(c), nil
}

func (s *Service) ClearCart(ctx context.Context) (CartView, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return CartView{}, err
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	c := s.cartForLocked(actor.ID)
	c.Clear()
	return s.cartView(c), nil
}

// --- Checkout and voids ---

// Checkout settles the operator's cart: it prices the sale, validates
// payment, and hands the repository one atomic CreateSale. The cart is
// cleared and the activity log written only after the sale committed,
// so a failed settlement leaves the cart intact for retry.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Sale, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	s.cartMu.Lock()
	lines := s.cartForLocked(actor.ID).Lines()
	s.cartMu.Unlock()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", store.ErrValidation)
	}

	if len(req.PaymentSplits) > 0 {
		req.PaymentMethod = domain.PaymentMethodSplit
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unsupported payment method %q", store.ErrValidation, req.PaymentMethod)
	}

	if req.Discount.Type != "" && !req.Discount.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown discount type %q", store.ErrValidation, req.Discount.Type)
	}
	if req.Discount.Value < 0 {
		return nil, fmt.Errorf("%w: discount value must not be negative", store.ErrValidation)
	}

	totals := pricing.ComputeTotals(lines, req.Discount, s.taxRate)

	if req.PaymentMethod == domain.PaymentMethodSplit {
		if err := validateSplits(req.PaymentSplits, totals.TotalCents); err != nil {
			return nil, err
		}
	}

	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.SaleItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			UnitCostCents:  line.UnitCostCents,
			Qty:            line.Qty,
			LineTotalCents: line.LineTotalCents,
		})
	}

	sale := domain.Sale{
		ID:            xid.New("sale"),
		CreatedAt:     time.Now().UTC(),
		Items:         items,
		SubtotalCents: totals.SubtotalCents,
		DiscountCents: totals.DiscountCents,
		Discount:      req.Discount,
		TotalCents:    totals.TotalCents,
		TaxCents:      totals.TaxCents,
		PaymentMethod: req.PaymentMethod,
		PaymentSplits: req.PaymentSplits,
		StaffID:       actor.ID,
		StaffName:     actor.Name,
		BranchID:      s.branchOrDefault(req.BranchID),
		CustomerRef:   strings.TrimSpace(req.CustomerRef),
		ControlNumber: newControlNumber(),
		Status:        domain.SaleActive,
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return nil, err
	}

	s.cartMu.Lock()
	s.cartForLocked(actor.ID).Clear()
	s.cartMu.Unlock()
	s.logActivity(ctx, actor, "checkout", fmt.Sprintf("sale %s total=%d payment=%s", created.ID, created.TotalCents, created.PaymentMethod))
	return created, nil
}

func validateSplits(splits []domain.PaymentSplit, totalCents int64) error {
	if len(splits) < 2 {
		return fmt.Errorf("%w: split payment needs at least two parts", store.ErrValidation)
	}
	var sum int64
	for _, split := range splits {
		if split.Method == domain.PaymentMethodSplit || !split.Method.Valid() {
			return fmt.Errorf("%w: unsupported split method %q", store.ErrValidation, split.Method)
		}
		if split.AmountCents < 1 {
			return fmt.Errorf("%w: split amounts must be positive", store.ErrValidation)
		}
		if split.Method != domain.PaymentCash && strings.TrimSpace(split.Reference) == "" {
			return fmt.Errorf("%w: non-cash split needs a reference", store.ErrValidation)
		}
		sum += split.AmountCents
	}
	if sum != totalCents {
		return fmt.Errorf("%w: split amounts must add up to the sale total", store.ErrValidation)
	}
	return nil
}

func (s *Service) VoidSale(ctx context.Context, saleID string, req domain.VoidRequest) (*domain.Sale, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanVoid() {
		return nil, fmt.Errorf("%w: only an admin can void a sale", ErrPermissionDenied)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "unspecified"
	}

	voided, err := s.repo.VoidSale(ctx, saleID, actor.Name, reason, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor, "void_sale", fmt.Sprintf("sale %s (%s)", voided.ID, reason))
	return voided, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, branchID string, limit int) ([]domain.Sale, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, branchID, limit)
}

// --- Staff ---

func (s *Service) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListStaff(ctx)
}

func (s *Service) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (*domain.StaffMember, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: staff name is required", store.ErrValidation)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", store.ErrValidation, req.Role)
	}
	if err := validatePIN(req.PIN); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.CreateStaff(ctx, domain.StaffMember{
		ID:        xid.New("staff"),
		Name:      req.Name,
		PINHash:   string(hash),
		Role:      req.Role,
		BranchID:  req.BranchID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor, "staff_create", fmt.Sprintf("%s (%s)", member.Name, member.Role))
	return member, nil
}

func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot remove your own account", store.ErrValidation)
	}

	if err := s.repo.DeleteStaff(ctx, id); err != nil {
		return err
	}

	s.cartMu.Lock()
	delete(s.carts, id)
	s.cartMu.Unlock()

	s.logActivity(ctx, actor, "staff_delete", id)
	return nil
}

// validatePIN enforces the 4-digit numeric format and rejects trivially
// guessable values for newly created accounts.
func validatePIN(pin string) error {
	if len(pin) != 4 {
		return fmt.Errorf("%w: PIN must be exactly 4 digits", store.ErrValidation)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: PIN must be numeric", store.ErrValidation)
		}
	}
	if pin[0] == pin[1] && pin[1] == pin[2] && pin[2] == pin[3] {
		return fmt.Errorf("%w: PIN must not repeat a single digit", store.ErrValidation)
	}
	ascending, descending := true, true
	for i := 1; i < 4; i++ {
		if pin[i] != pin[i-1]+1 {
			ascending = false
		}
		if pin[i] != pin[i-1]-1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("%w: PIN must not be a sequence", store.ErrValidation)
	}
	return nil
}

// --- Activity log ---

func (s *Service) ListActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListActivity(ctx, limit)
}

// logActivity is best-effort: a failed append is logged and swallowed,
// it never fails the operation it documents.
func (s *Service) logActivity(ctx context.Context, actor domain.Actor, action string, detail string) {
	entry := domain.ActivityLogEntry{
		ID:        xid.New("log"),
		CreatedAt: time.Now().UTC(),
		StaffName: actor.Name,
		Action:    action,
		Detail:    detail,
	}
	if err := s.repo.AppendActivity(ctx, entry); err != nil {
		s.log.Warn("activity log append failed",
			zap.String("action", action),
			zap.Error(err))
	}
}

// --- Business profile ---

func (s *Service) GetBusinessProfile(ctx context.Context) (*domain.BusinessProfile, error) {
	return s.repo.GetBusinessProfile(ctx)
}

func (s *Service) SaveBusinessProfile(ctx context.Context, profile domain.BusinessProfile) (*domain.BusinessProfile, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveBusinessProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, actor, "business_update", saved.Name)
	return saved, nil
}

// --- Daily summary ---

// DailySummary aggregates the day's active sales and asks the
// summarizer for a narrative message. AI failures degrade to the fixed
// template; the endpoint itself never fails on an AI error.
func (s *Service) DailySummary(ctx context.Context, date string) (domain.DailySummary, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return domain.DailySummary{}, err
	}

	var day time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return domain.DailySummary{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
		}
		day = parsed.UTC()
	}

	cacheKey := "summary:" + day.Format("2006-01-02")
	if cached, ok, err := s.summaryCache.Get(ctx, cacheKey); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		s.log.Warn("summary cache read failed", zap.Error(err))
	}

	summary, err := s.aggregateDay(ctx, day)
	if err != nil {
		return domain.DailySummary{}, err
	}

	profile, err := s.repo.GetBusinessProfile(ctx)
	if err != nil {
		return domain.DailySummary{}, err
	}

	message, err := s.summarizer.Summarize(ctx, summary, profile.Name)
	if err != nil {
		s.log.Warn("summarizer failed, using template", zap.Error(err))
		summary.Message = ai.FallbackSummary(summary, profile.Name)
		summary.Generated = false
	} else {
		summary.Message = message
		summary.Generated = true
	}

	if err := s.summaryCache.Set(ctx, cacheKey, &summary, s.summaryTTL); err != nil {
		s.log.Warn("summary cache write failed", zap.Error(err))
	}
	return summary, nil
}

func (s *Service) aggregateDay(ctx context.Context, day time.Time) (domain.DailySummary, error) {
	sales, err := s.repo.ListSales(ctx, "", 1000)
	if err != nil {
		return domain.DailySummary{}, err
	}

	from := day
	to := day.Add(24 * time.Hour)
	summary := domain.DailySummary{Date: day.Format("2006-01-02")}
	qtyByProduct := make(map[string]int)

	for _, sale := range sales {
		if sale.Status != domain.SaleActive {
			continue
		}
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		summary.TotalCents += sale.TotalCents
		summary.TransactionCount++
		for _, item := range sale.Items {
			qtyByProduct[item.Name] += item.Qty
		}
	}

	bestQty := 0
	for name, qty := range qtyByProduct {
		if qty > bestQty || (qty == bestQty && name < summary.TopProduct) {
			summary.TopProduct = name
			bestQty = qty
		}
	}
	return summary, nil
}

// --- Receipts and accounting sync ---

func (s *Service) BuildReceipt(ctx context.Context, saleID string) (receipt.Receipt, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return receipt.Receipt{}, err
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return receipt.Receipt{}, err
	}
	profile, err := s.repo.GetBusinessProfile(ctx)
	if err != nil {
		return receipt.Receipt{}, err
	}
	return receipt.Build(sale, *profile), nil
}

func (s *Service) SyncPreview(ctx context.Context, saleID string) (syncx.Preview, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return syncx.Preview{}, err
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return syncx.Preview{}, err
	}
	profile, err := s.repo.GetBusinessProfile(ctx)
	if err != nil {
		return syncx.Preview{}, err
	}
	return syncx.BuildPreview(sale, *profile), nil
}

// ExportAccounting renders the full ledger as an xlsx workbook.
func (s *Service) ExportAccounting(ctx context.Context, branchID string) ([]byte, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	sales, err := s.repo.ListSales(ctx, branchID, 10000)
	if err != nil {
		return nil, err
	}
	payload, err := syncx.ExportWorkbook(sales)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor, "accounting_export", fmt.Sprintf("%d sales", len(sales)))
	return payload, nil
}

// --- Helpers ---

// newControlNumber mimics the KRA eTIMS control unit format. The value
// is a fiscal reference printed on the receipt, not a security token.
func newControlNumber() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("KRA-ETIMS-%06d-%d", time.Now().Unix()%1000000, 1)
	}
	digits := binary.BigEndian.Uint32(buf[:4]) % 1000000
	check := uint32(buf[4])%9 + 1
	return fmt.Sprintf("KRA-ETIMS-%06d-%d", digits, check)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
