package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"veira/backend/internal/domain"
	"veira/backend/internal/store"
)

func TestVoidSaleRestocksBranchInventory(t *testing.T) {
	databaseURL := os.Getenv("VEIRA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set VEIRA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-void-it-%d", stamp)
	saleID := fmt.Sprintf("sale-void-it-%d", stamp)
	branchID := "main"

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branch_stock WHERE branch_id = $1 AND product_id = $2`, branchID, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.CreateProduct(ctx, domain.Product{
		ID:         productID,
		Name:       "Void IT Product",
		Category:   "Groceries",
		PriceCents: 12000,
		CostCents:  9000,
	}, branchID, 10); err != nil {
		t.Fatalf("create product: %v", err)
	}

	sale, err := s.CreateSale(ctx, domain.Sale{
		ID:       saleID,
		BranchID: branchID,
		StaffID:  "staff-it",
		StaffName: "Integration Tester",
		Items: []domain.SaleItem{{
			ProductID:      productID,
			Name:           "Void IT Product",
			Qty:            2,
			UnitPriceCents: 12000,
			UnitCostCents:  9000,
			LineTotalCents: 24000,
		}},
		SubtotalCents: 24000,
		TotalCents:    24000,
		TaxCents:      3310,
		PaymentMethod: domain.PaymentCash,
		ControlNumber: fmt.Sprintf("KRA-ETIMS-%d-1", stamp),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	var qty int
	stockQuery := `SELECT qty FROM branch_stock WHERE branch_id = $1 AND product_id = $2`
	if err := s.db.QueryRowContext(ctx, stockQuery, branchID, productID).Scan(&qty); err != nil {
		t.Fatalf("query stock after sale: %v", err)
	}
	if qty != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", qty)
	}

	at := time.Now().UTC()
	voided, err := s.VoidSale(ctx, sale.ID, "Integration Tester", "integration test void", at)
	if err != nil {
		t.Fatalf("void sale: %v", err)
	}
	if voided.Status != domain.SaleVoided || voided.VoidedAt == nil {
		t.Fatalf("void markers not set: %+v", voided)
	}
	if voided.TotalCents != 24000 || len(voided.Items) != 1 {
		t.Fatal("void must not alter totals or items")
	}

	if err := s.db.QueryRowContext(ctx, stockQuery, branchID, productID).Scan(&qty); err != nil {
		t.Fatalf("query stock after void: %v", err)
	}
	if qty != 10 {
		t.Fatalf("expected stock 10 after void restock, got %d", qty)
	}

	if _, err := s.VoidSale(ctx, sale.ID, "Integration Tester", "again", at); !errors.Is(err, store.ErrAlreadyVoided) {
		t.Fatalf("second void err = %v, want ErrAlreadyVoided", err)
	}
}
