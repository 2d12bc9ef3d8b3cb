package sync

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"veira/backend/internal/domain"
)

func testSale() *domain.Sale {
	return &domain.Sale{
		ID:        "sale-s1",
		CreatedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Items: []domain.SaleItem{
			{ProductID: "prod-sugar", Name: "Sugar 1kg", Qty: 2, UnitPriceCents: 18000, LineTotalCents: 36000},
			{ProductID: "prod-milk", Name: "Milk 500ml", Qty: 1, UnitPriceCents: 6500, LineTotalCents: 6500},
		},
		SubtotalCents: 42500,
		DiscountCents: 2500,
		TotalCents:    40000,
		TaxCents:      5517,
		PaymentMethod: domain.PaymentCash,
		StaffName:     "Mercy W.",
		ControlNumber: "KRA-ETIMS-987654-3",
		Status:        domain.SaleActive,
	}
}

func TestToZohoInvoice(t *testing.T) {
	inv := ToZohoInvoice(testSale(), domain.BusinessProfile{Currency: "KES"})

	if inv.InvoiceNumber != "INV-sale-s1" || inv.ReferenceID != "sale-s1" {
		t.Fatalf("invoice keys = %q / %q", inv.InvoiceNumber, inv.ReferenceID)
	}
	if inv.Date != "2026-08-28" || inv.CurrencyCode != "KES" {
		t.Fatalf("date/currency = %q / %q", inv.Date, inv.CurrencyCode)
	}
	if len(inv.LineItems) != 2 || inv.LineItems[0].Rate != 180.0 || inv.LineItems[0].Quantity != 2 {
		t.Fatalf("line items = %+v", inv.LineItems)
	}
	if inv.Total != 400.0 || inv.TaxTotal != 55.17 || inv.Discount != 25.0 {
		t.Fatalf("totals = %+v", inv)
	}
}

func TestToQBOSalesReceipt(t *testing.T) {
	receipt := ToQBOSalesReceipt(testSale())
	if receipt.DocNumber != "sale-s1" || receipt.TotalAmt != 400.0 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if len(receipt.Lines) != 2 || receipt.Lines[1].Amount != 65.0 {
		t.Fatalf("lines = %+v", receipt.Lines)
	}
}

func TestTransformsAreDeterministic(t *testing.T) {
	sale := testSale()
	business := domain.BusinessProfile{Currency: "KES"}
	first := BuildPreview(sale, business)
	second := BuildPreview(sale, business)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("preview for the same sale must be identical across calls")
	}
}

func TestToSheetRow(t *testing.T) {
	row := ToSheetRow(testSale())
	if len(row) != 10 {
		t.Fatalf("row has %d columns, want 10", len(row))
	}
	if row[1] != "sale-s1" || row[2] != "Sugar 1kg x2; Milk 500ml x1" {
		t.Fatalf("row = %v", row)
	}
	if row[6] != "400.00" || row[9] != "KRA-ETIMS-987654-3" {
		t.Fatalf("row = %v", row)
	}
}

func TestExportWorkbook(t *testing.T) {
	voided := *testSale()
	voided.ID = "sale-s2"
	voided.Status = domain.SaleVoided

	payload, err := ExportWorkbook([]domain.Sale{*testSale(), voided})
	if err != nil {
		t.Fatalf("ExportWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Sales")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 sales", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][10] != "Status" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "sale-s1" || rows[2][10] != "voided" {
		t.Fatalf("data rows = %v / %v", rows[1], rows[2])
	}
}
