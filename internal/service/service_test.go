package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"veira/backend/internal/cache"
	"veira/backend/internal/domain"
	"veira/backend/internal/store"
	"veira/backend/internal/store/memory"
)

const testTaxRate = 0.16

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	seed := []struct {
		p     domain.Product
		stock int
	}{
		{domain.Product{ID: "p-a", Name: "Product A", Category: "Test", PriceCents: 10000, CostCents: 7000}, 5},
		{domain.Product{ID: "p-b", Name: "Product B", Category: "Test", PriceCents: 25000, CostCents: 18000, LowStockThreshold: 3}, 2},
	}
	for _, it := range seed {
		if _, err := repo.CreateProduct(ctx, it.p, "main", it.stock); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	for _, m := range []domain.StaffMember{
		{ID: "st-admin", Name: "Asha", PINHash: "x", Role: domain.RoleAdmin},
		{ID: "st-cashier", Name: "Brian", PINHash: "x", Role: domain.RoleCashier},
	} {
		if _, err := repo.CreateStaff(ctx, m); err != nil {
			t.Fatalf("seed staff: %v", err)
		}
	}

	svc := New(repo, zap.NewNop(), nil, cache.NoopSummaryCache{}, "main", testTaxRate, time.Minute)
	return svc, repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{ID: "st-admin", Name: "Asha", Role: domain.RoleAdmin})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{ID: "st-cashier", Name: "Brian", Role: domain.RoleCashier})
}

func mustAdd(t *testing.T, svc *Service, ctx context.Context, productID string, qty int) {
	t.Helper()
	if _, err := svc.AddToCart(ctx, "", productID, qty); err != nil {
		t.Fatalf("AddToCart %s x%d: %v", productID, qty, err)
	}
}

func stockOf(t *testing.T, svc *Service, productID string) int {
	t.Helper()
	p, err := svc.GetProduct(adminCtx(), "", productID)
	if err != nil {
		t.Fatalf("GetProduct %s: %v", productID, err)
	}
	return p.Stock
}

func TestCheckoutComputesTotalsAndClearsCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	mustAdd(t, svc, ctx, "p-a", 3)

	sale, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		Discount:      domain.DiscountConfig{Type: domain.DiscountPercentage, Value: 10},
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if sale.SubtotalCents != 30000 || sale.DiscountCents != 3000 || sale.TotalCents != 27000 {
		t.Fatalf("totals = %d/%d/%d, want 30000/3000/27000", sale.SubtotalCents, sale.DiscountCents, sale.TotalCents)
	}
	if sale.TaxCents != 3724 {
		t.Fatalf("tax = %d, want 3724", sale.TaxCents)
	}
	if sale.StaffID != "st-cashier" || sale.StaffName != "Brian" {
		t.Fatalf("operator = %s/%s", sale.StaffID, sale.StaffName)
	}
	if sale.ControlNumber == "" {
		t.Fatal("expected an eTIMS control number")
	}
	if got := stockOf(t, svc, "p-a"); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	view, err := svc.GetCart(ctx)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("cart must be empty after checkout, has %d lines", len(view.Lines))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCheckoutRequiresActor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestCheckoutInsufficientStockKeepsCartAndStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	// Cashier stages all 5 units; another operator then buys 4 of them.
	mustAdd(t, svc, ctx, "p-a", 5)

	other := adminCtx()
	mustAdd(t, svc, other, "p-a", 4)
	if _, err := svc.Checkout(other, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash}); err != nil {
		t.Fatalf("competing checkout: %v", err)
	}

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := stockOf(t, svc, "p-a"); got != 1 {
		t.Fatalf("stock = %d, want 1 (failed checkout must not touch stock)", got)
	}

	view, err := svc.GetCart(ctx)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Qty != 5 {
		t.Fatalf("cart must survive a failed checkout, got %+v", view.Lines)
	}

	sales, err := svc.ListSales(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("recorded sales = %d, want only the competing one", len(sales))
	}
}

func TestCheckoutDeletedProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	mustAdd(t, svc, ctx, "p-a", 1)
	if err := svc.DeleteProduct(adminCtx(), "p-a"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckoutSplitPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	// 2 x Product A = 20000 subtotal, no discount, total 20000.
	mustAdd(t, svc, ctx, "p-a", 2)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentSplits: []domain.PaymentSplit{
			{Method: domain.PaymentCash, AmountCents: 5000},
			{Method: domain.PaymentMpesa, AmountCents: 5000, Reference: "QX12"},
		},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("short split err = %v, want ErrValidation", err)
	}

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentSplits: []domain.PaymentSplit{
			{Method: domain.PaymentCash, AmountCents: 12000},
			{Method: domain.PaymentMpesa, AmountCents: 8000},
		},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("referenceless mpesa split err = %v, want ErrValidation", err)
	}

	sale, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentSplits: []domain.PaymentSplit{
			{Method: domain.PaymentCash, AmountCents: 12000},
			{Method: domain.PaymentMpesa, AmountCents: 8000, Reference: "QX12"},
		},
	})
	if err != nil {
		t.Fatalf("split checkout: %v", err)
	}
	if sale.PaymentMethod != domain.PaymentMethodSplit || len(sale.PaymentSplits) != 2 {
		t.Fatalf("sale payment = %s with %d splits", sale.PaymentMethod, len(sale.PaymentSplits))
	}
}

func TestVoidSalePermissionsAndRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	mustAdd(t, svc, ctx, "p-a", 4)
	sale, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if got := stockOf(t, svc, "p-a"); got != 1 {
		t.Fatalf("stock = %d, want 1", got)
	}

	if _, err := svc.VoidSale(ctx, sale.ID, domain.VoidRequest{Reason: "test"}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cashier void err = %v, want ErrPermissionDenied", err)
	}

	voided, err := svc.VoidSale(adminCtx(), sale.ID, domain.VoidRequest{Reason: "wrong order"})
	if err != nil {
		t.Fatalf("admin void: %v", err)
	}
	if voided.Status != domain.SaleVoided || voided.VoidedBy != "Asha" || voided.VoidReason != "wrong order" {
		t.Fatalf("void markers = %+v", voided)
	}
	if got := stockOf(t, svc, "p-a"); got != 5 {
		t.Fatalf("stock after void = %d, want restored 5", got)
	}

	if _, err := svc.VoidSale(adminCtx(), sale.ID, domain.VoidRequest{}); !errors.Is(err, store.ErrAlreadyVoided) {
		t.Fatalf("second void err = %v, want ErrAlreadyVoided", err)
	}
	if got := stockOf(t, svc, "p-a"); got != 5 {
		t.Fatalf("stock after rejected void = %d, want 5", got)
	}
}

func TestSalesHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	var ids []string
	for i := 0; i < 3; i++ {
		mustAdd(t, svc, ctx, "p-a", 1)
		sale, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
		if err != nil {
			t.Fatalf("checkout %d: %v", i, err)
		}
		ids = append(ids, sale.ID)
	}

	sales, err := svc.ListSales(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(sales) != 3 {
		t.Fatalf("len = %d, want 3", len(sales))
	}
	for i := range sales {
		if sales[i].ID != ids[len(ids)-1-i] {
			t.Fatalf("position %d = %s, want %s", i, sales[i].ID, ids[len(ids)-1-i])
		}
	}
}

func TestAddToCartRejectsOverStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	if _, err := svc.AddToCart(ctx, "", "p-b", 3); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if _, err := svc.AddToCart(ctx, "", "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCatalogAdminGate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{Name: "X", PriceCents: 100})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cashier create err = %v, want ErrPermissionDenied", err)
	}
	if err := svc.DeleteProduct(cashierCtx(), "p-a"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cashier delete err = %v, want ErrPermissionDenied", err)
	}

	created, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name: "Tea 250g", Category: "Groceries", PriceCents: 9500, CostCents: 7000, InitialStock: 12,
	})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated product id")
	}
	if got := stockOf(t, svc, created.ID); got != 12 {
		t.Fatalf("initial stock = %d, want 12", got)
	}
}

func TestCreateStaffPINRules(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	for _, pin := range []string{"123", "12a4", "44444", "1111", "1234", "4321"} {
		_, err := svc.CreateStaff(ctx, domain.StaffCreateRequest{Name: "New", PIN: pin, Role: domain.RoleCashier})
		if !errors.Is(err, store.ErrValidation) {
			t.Fatalf("PIN %q err = %v, want ErrValidation", pin, err)
		}
	}

	member, err := svc.CreateStaff(ctx, domain.StaffCreateRequest{Name: "Neema", PIN: "2580", Role: domain.RoleCashier})
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}

	staff, err := repo.ListStaff(context.Background())
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	for _, m := range staff {
		if m.ID != member.ID {
			continue
		}
		if m.PINHash == "2580" {
			t.Fatal("PIN must be stored hashed")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(m.PINHash), []byte("2580")); err != nil {
			t.Fatalf("stored hash does not verify: %v", err)
		}
		return
	}
	t.Fatal("created staff member not found")
}

func TestDeleteStaffSelfRejected(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.DeleteStaff(adminCtx(), "st-admin"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("self delete err = %v, want ErrValidation", err)
	}
	if err := svc.DeleteStaff(cashierCtx(), "st-admin"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cashier delete err = %v, want ErrPermissionDenied", err)
	}
}

func TestLowStock(t *testing.T) {
	svc, _ := newTestService(t)

	low, err := svc.LowStock(adminCtx(), "")
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	// p-a stock 5 <= default threshold 10; p-b stock 2 <= threshold 3.
	if len(low) != 2 {
		t.Fatalf("low stock count = %d, want 2", len(low))
	}
}

type stubSummarizer struct {
	msg   string
	err   error
	calls int
}

func (s *stubSummarizer) Summarize(_ context.Context, _ domain.DailySummary, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.msg, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]domain.DailySummary
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.DailySummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return &v, true, nil
	}
	return nil, false, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.DailySummary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]domain.DailySummary)
	}
	c.data[key] = *value
	return nil
}

func sellToday(t *testing.T, svc *Service, productID string, qty int) *domain.Sale {
	t.Helper()
	ctx := cashierCtx()
	mustAdd(t, svc, ctx, productID, qty)
	sale, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return sale
}

func TestDailySummaryAggregatesAndCaches(t *testing.T) {
	svc, _ := newTestService(t)
	summarizer := &stubSummarizer{msg: "great day"}
	svc.summarizer = summarizer
	svc.summaryCache = &mapCache{}

	sellToday(t, svc, "p-a", 3) // 30000
	sellToday(t, svc, "p-b", 1) // 25000
	voidable := sellToday(t, svc, "p-a", 1)
	if _, err := svc.VoidSale(adminCtx(), voidable.ID, domain.VoidRequest{Reason: "x"}); err != nil {
		t.Fatalf("void: %v", err)
	}

	summary, err := svc.DailySummary(cashierCtx(), "")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.TotalCents != 55000 || summary.TransactionCount != 2 {
		t.Fatalf("aggregate = %d/%d, want 55000/2 (voided sale excluded)", summary.TotalCents, summary.TransactionCount)
	}
	if summary.TopProduct != "Product A" {
		t.Fatalf("top product = %q", summary.TopProduct)
	}
	if !summary.Generated || summary.Message != "great day" {
		t.Fatalf("summary = %+v", summary)
	}

	if _, err := svc.DailySummary(cashierCtx(), ""); err != nil {
		t.Fatalf("second DailySummary: %v", err)
	}
	if summarizer.calls != 1 {
		t.Fatalf("summarizer calls = %d, want 1 (second hit served from cache)", summarizer.calls)
	}
}

func TestDailySummaryFallsBackOnAIError(t *testing.T) {
	svc, _ := newTestService(t)
	svc.summarizer = &stubSummarizer{err: fmt.Errorf("model unavailable")}

	sellToday(t, svc, "p-a", 2)

	summary, err := svc.DailySummary(cashierCtx(), "")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.Generated {
		t.Fatal("fallback summary must not be marked generated")
	}
	if summary.Message == "" {
		t.Fatal("fallback summary must carry the template message")
	}
}

func TestBuildReceiptAndSyncPreview(t *testing.T) {
	svc, repo := newTestService(t)
	if _, err := repo.SaveBusinessProfile(context.Background(), domain.BusinessProfile{Name: "Veira Duka", KRAPin: "A012345678Z"}); err != nil {
		t.Fatalf("SaveBusinessProfile: %v", err)
	}

	sale := sellToday(t, svc, "p-a", 2)

	r, err := svc.BuildReceipt(cashierCtx(), sale.ID)
	if err != nil {
		t.Fatalf("BuildReceipt: %v", err)
	}
	if r.SaleID != sale.ID || r.PreviewText == "" || r.EscposBase64 == "" {
		t.Fatalf("receipt = %+v", r)
	}

	preview, err := svc.SyncPreview(cashierCtx(), sale.ID)
	if err != nil {
		t.Fatalf("SyncPreview: %v", err)
	}
	if preview.Zoho.InvoiceNumber != "INV-"+sale.ID {
		t.Fatalf("zoho invoice number = %q", preview.Zoho.InvoiceNumber)
	}
}

func TestExportAccountingAdminOnly(t *testing.T) {
	svc, _ := newTestService(t)
	sellToday(t, svc, "p-a", 1)

	if _, err := svc.ExportAccounting(cashierCtx(), ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cashier export err = %v, want ErrPermissionDenied", err)
	}
	payload, err := svc.ExportAccounting(adminCtx(), "")
	if err != nil {
		t.Fatalf("ExportAccounting: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("expected xlsx payload")
	}
}

func TestControlNumberShape(t *testing.T) {
	svc, _ := newTestService(t)
	sale := sellToday(t, svc, "p-a", 1)
	if len(sale.ControlNumber) < len("KRA-ETIMS-000000-1") || sale.ControlNumber[:10] != "KRA-ETIMS-" {
		t.Fatalf("control number = %q", sale.ControlNumber)
	}
}
