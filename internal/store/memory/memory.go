// Package memory implements store.Repository with mutex-guarded maps.
// It is the authoritative state of the POS: checkout and void run as
// single critical sections under one lock, so concurrent attempts
// against the same stock can never both succeed when only one has
// sufficient inventory.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"veira/backend/internal/domain"
	"veira/backend/internal/store"
	"veira/backend/internal/xid"
)

// maxActivityLogEntries bounds the audit trail; oldest entries are
// evicted first. A resource bound, not a correctness invariant.
const maxActivityLogEntries = 500

const DefaultBranchID = "main"

type Store struct {
	mu        sync.RWMutex
	business  domain.BusinessProfile
	products  map[string]domain.Product
	stock     map[string]map[string]int // branchID -> productID -> qty
	staff     map[string]domain.StaffMember
	salesByID map[string]*domain.Sale
	sales     []*domain.Sale // newest first
	logs      []domain.ActivityLogEntry
}

func New() *Store {
	return &Store{
		business:  domain.BusinessProfile{Currency: "KES"},
		products:  make(map[string]domain.Product),
		stock:     map[string]map[string]int{DefaultBranchID: {}},
		staff:     make(map[string]domain.StaffMember),
		salesByID: make(map[string]*domain.Sale),
		sales:     make([]*domain.Sale, 0, 64),
		logs:      make([]domain.ActivityLogEntry, 0, 128),
	}
}

// NewSeeded returns a store preloaded with the demo catalog and staff.
// Seed PINs come from SEED_ADMIN_PIN / SEED_CASHIER_PIN; hardcoded dev
// defaults are used (with a warning) when unset.
func NewSeeded() *Store {
	s := New()

	products := []domain.Product{
		{ID: "prod-milk", Name: "Milk 500ml", Category: "Dairy", PriceCents: 6500, CostCents: 4800},
		{ID: "prod-bread", Name: "Bread 400g", Category: "Bakery", PriceCents: 6000, CostCents: 4200},
		{ID: "prod-sugar", Name: "Sugar 1kg", Category: "Groceries", PriceCents: 18000, CostCents: 14500},
		{ID: "prod-oil", Name: "Cooking Oil 1L", Category: "Groceries", PriceCents: 24000, CostCents: 19000, LowStockThreshold: 5},
	}
	stock := map[string]int{
		"prod-milk":  50,
		"prod-bread": 30,
		"prod-sugar": 20,
		"prod-oil":   15,
	}
	for _, p := range products {
		s.products[p.ID] = p
		s.stock[DefaultBranchID][p.ID] = stock[p.ID]
	}

	adminPIN := envOr("SEED_ADMIN_PIN", "1234")
	cashierPIN := envOr("SEED_CASHIER_PIN", "0000")
	if os.Getenv("SEED_ADMIN_PIN") == "" || os.Getenv("SEED_CASHIER_PIN") == "" {
		log.Println("[memory-store] WARNING: using default dev PINs. Set SEED_ADMIN_PIN and SEED_CASHIER_PIN to override.")
	}

	now := time.Now().UTC()
	for _, m := range []struct {
		id, name, pin string
		role          domain.Role
	}{
		{"staff-admin", "Admin User", adminPIN, domain.RoleAdmin},
		{"staff-mercy", "Mercy W.", cashierPIN, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(m.pin), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed PIN for %s: %v", m.name, err)
		}
		s.staff[m.id] = domain.StaffMember{
			ID:        m.id,
			Name:      m.name,
			PINHash:   string(hash),
			Role:      m.role,
			BranchID:  DefaultBranchID,
			CreatedAt: now,
		}
	}

	s.business = domain.BusinessProfile{Currency: "KES"}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewFromSnapshot restores a store from a whole-state snapshot
// previously produced by Snapshot.
func NewFromSnapshot(snap domain.StateSnapshot) *Store {
	s := New()
	s.business = snap.Business
	if s.business.Currency == "" {
		s.business.Currency = "KES"
	}
	for _, p := range snap.Products {
		s.products[p.ID] = p
	}
	for branch, byProduct := range snap.Stock {
		s.stock[branch] = make(map[string]int, len(byProduct))
		for id, qty := range byProduct {
			s.stock[branch][id] = qty
		}
	}
	for _, m := range snap.Staff {
		if hash, ok := snap.PINHash[m.ID]; ok {
			m.PINHash = hash
		}
		s.staff[m.ID] = m
	}
	for i := range snap.Sales {
		sale := snap.Sales[i]
		c := cloneSale(&sale)
		s.salesByID[c.ID] = c
		s.sales = append(s.sales, c)
	}
	s.logs = append(s.logs, snap.Logs...)
	if len(s.logs) > maxActivityLogEntries {
		s.logs = s.logs[:maxActivityLogEntries]
	}
	return s
}

// Snapshot produces the whole-state payload for the host persistence
// boundary. The copy is deep enough that later mutations never leak
// into an in-flight save.
func (s *Store) Snapshot() domain.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.StateSnapshot{
		Business: s.business,
		Products: make([]domain.Product, 0, len(s.products)),
		Stock:    make(map[string]map[string]int, len(s.stock)),
		Staff:    make([]domain.StaffMember, 0, len(s.staff)),
		PINHash:  make(map[string]string, len(s.staff)),
		Sales:    make([]domain.Sale, 0, len(s.sales)),
		Logs:     make([]domain.ActivityLogEntry, len(s.logs)),
	}
	for _, p := range s.products {
		snap.Products = append(snap.Products, p)
	}
	slices.SortFunc(snap.Products, func(a, b domain.Product) int {
		return strings.Compare(a.ID, b.ID)
	})
	for branch, byProduct := range s.stock {
		snap.Stock[branch] = make(map[string]int, len(byProduct))
		for id, qty := range byProduct {
			snap.Stock[branch][id] = qty
		}
	}
	for _, m := range s.staff {
		snap.PINHash[m.ID] = m.PINHash
		snap.Staff = append(snap.Staff, m)
	}
	slices.SortFunc(snap.Staff, func(a, b domain.StaffMember) int {
		return strings.Compare(a.ID, b.ID)
	})
	for _, sale := range s.sales {
		snap.Sales = append(snap.Sales, *cloneSale(sale))
	}
	copy(snap.Logs, s.logs)
	return snap
}

func (s *Store) branchStock(branchID string) map[string]int {
	if branchID == "" {
		branchID = DefaultBranchID
	}
	byProduct, ok := s.stock[branchID]
	if !ok {
		byProduct = make(map[string]int)
		s.stock[branchID] = byProduct
	}
	return byProduct
}

func (s *Store) ListProducts(_ context.Context, branchID string) ([]domain.ProductWithStock, error) {
	if branchID == "" {
		branchID = DefaultBranchID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct := s.stock[branchID]
	out := make([]domain.ProductWithStock, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, domain.ProductWithStock{Product: p, Stock: byProduct[p.ID]})
	}
	slices.SortFunc(out, func(a, b domain.ProductWithStock) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, branchID string, id string) (*domain.ProductWithStock, error) {
	if branchID == "" {
		branchID = DefaultBranchID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.ProductWithStock{Product: p, Stock: s.stock[branchID][id]}, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product, branchID string, initialStock int) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if initialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock must not be negative", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate product id %s", store.ErrValidation, product.ID)
	}
	s.products[product.ID] = product
	s.branchStock(branchID)[product.ID] = initialStock

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

// DeleteProduct is unconditional: sales store denormalized snapshots,
// so history survives without referential-integrity checks.
func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	for _, byProduct := range s.stock {
		delete(byProduct, id)
	}
	return nil
}

func (s *Store) IncreaseStock(_ context.Context, branchID string, productID string, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("%w: restock quantity must be at least 1", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[productID]; !exists {
		return 0, store.ErrNotFound
	}
	byProduct := s.branchStock(branchID)
	byProduct[productID] += qty
	return byProduct[productID], nil
}

// CreateSale is the settlement critical section. It re-validates stock
// for every line at this instant and either applies the full decrement
// and appends the sale, or mutates nothing at all.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrValidation)
	}
	if sale.StaffID == "" {
		return nil, fmt.Errorf("%w: sale has no operator", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate sale id %s", store.ErrValidation, sale.ID)
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.BranchID == "" {
		sale.BranchID = DefaultBranchID
	}
	if sale.Status == "" {
		sale.Status = domain.SaleActive
	}

	// Validate every line before touching any stock.
	byProduct := s.branchStock(sale.BranchID)
	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: quantity for %s must be at least 1", store.ErrValidation, item.Name)
		}
		if _, exists := s.products[item.ProductID]; !exists {
			return nil, fmt.Errorf("%w: product %s no longer exists", store.ErrNotFound, item.Name)
		}
		if byProduct[item.ProductID] < item.Qty {
			return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, item.Name)
		}
	}

	for _, item := range sale.Items {
		byProduct[item.ProductID] -= item.Qty
	}

	committed := cloneSale(&sale)
	s.salesByID[committed.ID] = committed
	s.sales = append([]*domain.Sale{committed}, s.sales...)

	return cloneSale(committed), nil
}

// VoidSale flips an active sale to voided and restores its stock impact
// in the same critical section. The sale itself is never deleted and
// its totals and items are untouched.
func (s *Store) VoidSale(_ context.Context, id string, voidedBy string, reason string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleActive {
		return nil, store.ErrAlreadyVoided
	}

	byProduct := s.branchStock(sale.BranchID)
	for _, item := range sale.Items {
		// Products deleted since the sale get no restock; their
		// snapshot lines stay in history regardless.
		if _, exists := s.products[item.ProductID]; exists {
			byProduct[item.ProductID] += item.Qty
		}
	}

	voidedAt := at.UTC()
	sale.Status = domain.SaleVoided
	sale.VoidedAt = &voidedAt
	sale.VoidedBy = voidedBy
	sale.VoidReason = reason

	return cloneSale(sale), nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

// ListSales returns sales newest first; callers rely on the
// reverse-chronological contract for receipts and history views.
func (s *Store) ListSales(_ context.Context, branchID string, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	out := make([]domain.Sale, 0, limit)
	for _, sale := range s.sales {
		if branchID != "" && sale.BranchID != branchID {
			continue
		}
		out = append(out, *cloneSale(sale))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListStaff(_ context.Context) ([]domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StaffMember, 0, len(s.staff))
	for _, m := range s.staff {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b domain.StaffMember) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) CreateStaff(_ context.Context, member domain.StaffMember) (*domain.StaffMember, error) {
	if member.Name == "" || member.PINHash == "" || !member.Role.Valid() {
		return nil, fmt.Errorf("%w: staff member requires name, PIN and role", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if member.ID == "" {
		member.ID = xid.New("staff")
	}
	if _, exists := s.staff[member.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate staff id %s", store.ErrValidation, member.ID)
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	s.staff[member.ID] = member
	created := member
	return &created, nil
}

// DeleteStaff rejects removing the last member: the system must always
// have at least one operator able to log in.
func (s *Store) DeleteStaff(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staff[id]; !exists {
		return store.ErrNotFound
	}
	if len(s.staff) == 1 {
		return fmt.Errorf("%w: cannot remove the last staff member", store.ErrValidation)
	}
	delete(s.staff, id)
	return nil
}

// AppendActivity prepends to the bounded log. It never fails: the log is
// best-effort and must not break the operation it documents.
func (s *Store) AppendActivity(_ context.Context, entry domain.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append([]domain.ActivityLogEntry{entry}, s.logs...)
	if len(s.logs) > maxActivityLogEntries {
		s.logs = s.logs[:maxActivityLogEntries]
	}
	return nil
}

func (s *Store) ListActivity(_ context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]domain.ActivityLogEntry, limit)
	copy(out, s.logs[:limit])
	return out, nil
}

func (s *Store) GetBusinessProfile(_ context.Context) (*domain.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile := s.business
	return &profile, nil
}

func (s *Store) SaveBusinessProfile(_ context.Context, profile domain.BusinessProfile) (*domain.BusinessProfile, error) {
	if profile.Name == "" {
		return nil, fmt.Errorf("%w: business name is required", store.ErrValidation)
	}
	if profile.Currency == "" {
		profile.Currency = "KES"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.business = profile
	saved := profile
	return &saved, nil
}

func validateProduct(p domain.Product) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("%w: product requires id and name", store.ErrValidation)
	}
	if p.PriceCents < 0 || p.CostCents < 0 {
		return fmt.Errorf("%w: price and cost must not be negative", store.ErrValidation)
	}
	return nil
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	c := *sale
	c.Items = make([]domain.SaleItem, len(sale.Items))
	copy(c.Items, sale.Items)
	if len(sale.PaymentSplits) > 0 {
		c.PaymentSplits = make([]domain.PaymentSplit, len(sale.PaymentSplits))
		copy(c.PaymentSplits, sale.PaymentSplits)
	}
	if sale.VoidedAt != nil {
		at := *sale.VoidedAt
		c.VoidedAt = &at
	}
	return &c
}
