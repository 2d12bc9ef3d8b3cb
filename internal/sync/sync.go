// Package sync maps committed sales onto the payload shapes expected by
// external accounting targets (Zoho Books, QuickBooks Online, a Google
// Sheets ledger row) and builds the xlsx export. Transforms are pure and
// deterministic for a given sale, so retries always produce identical
// payloads keyed on the sale id.
package sync

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"veira/backend/internal/domain"
)

type ZohoLineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Rate     float64 `json:"rate"`
}

type ZohoInvoice struct {
	InvoiceNumber string         `json:"invoice_number"`
	ReferenceID   string         `json:"reference_id"`
	Date          string         `json:"date"`
	CurrencyCode  string         `json:"currency_code"`
	LineItems     []ZohoLineItem `json:"line_items"`
	Discount      float64        `json:"discount"`
	Total         float64        `json:"total"`
	TaxTotal      float64        `json:"tax_total"`
	Notes         string         `json:"notes"`
}

type QBOLine struct {
	Description string  `json:"Description"`
	Amount      float64 `json:"Amount"`
	Qty         int     `json:"Qty"`
}

type QBOSalesReceipt struct {
	DocNumber    string    `json:"DocNumber"`
	TxnDate      string    `json:"TxnDate"`
	Lines        []QBOLine `json:"Line"`
	TotalAmt     float64   `json:"TotalAmt"`
	PaymentRefNo string    `json:"PaymentRefNum"`
	PrivateNote  string    `json:"PrivateNote"`
}

// SheetRow is one append-row for the Google Sheets ledger, in column
// order: date, sale id, items, subtotal, discount, tax, total, payment,
// staff, control number.
type SheetRow []string

func ToZohoInvoice(sale *domain.Sale, business domain.BusinessProfile) ZohoInvoice {
	currency := business.Currency
	if currency == "" {
		currency = "KES"
	}
	lines := make([]ZohoLineItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		lines = append(lines, ZohoLineItem{
			Name:     item.Name,
			Quantity: item.Qty,
			Rate:     cents(item.UnitPriceCents),
		})
	}
	return ZohoInvoice{
		InvoiceNumber: "INV-" + sale.ID,
		ReferenceID:   sale.ID,
		Date:          sale.CreatedAt.Format("2006-01-02"),
		CurrencyCode:  currency,
		LineItems:     lines,
		Discount:      cents(sale.DiscountCents),
		Total:         cents(sale.TotalCents),
		TaxTotal:      cents(sale.TaxCents),
		Notes:         "eTIMS CU: " + sale.ControlNumber,
	}
}

func ToQBOSalesReceipt(sale *domain.Sale) QBOSalesReceipt {
	lines := make([]QBOLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		lines = append(lines, QBOLine{
			Description: item.Name,
			Amount:      cents(item.LineTotalCents),
			Qty:         item.Qty,
		})
	}
	return QBOSalesReceipt{
		DocNumber:    sale.ID,
		TxnDate:      sale.CreatedAt.Format("2006-01-02"),
		Lines:        lines,
		TotalAmt:     cents(sale.TotalCents),
		PaymentRefNo: string(sale.PaymentMethod),
		PrivateNote:  "eTIMS CU: " + sale.ControlNumber,
	}
}

func ToSheetRow(sale *domain.Sale) SheetRow {
	items := ""
	for i, item := range sale.Items {
		if i > 0 {
			items += "; "
		}
		items += fmt.Sprintf("%s x%d", item.Name, item.Qty)
	}
	return SheetRow{
		sale.CreatedAt.Format(time.RFC3339),
		sale.ID,
		items,
		fmt.Sprintf("%.2f", cents(sale.SubtotalCents)),
		fmt.Sprintf("%.2f", cents(sale.DiscountCents)),
		fmt.Sprintf("%.2f", cents(sale.TaxCents)),
		fmt.Sprintf("%.2f", cents(sale.TotalCents)),
		string(sale.PaymentMethod),
		sale.StaffName,
		sale.ControlNumber,
	}
}

// Preview bundles every target payload for one sale so the operator can
// inspect exactly what an integration push would send.
type Preview struct {
	SaleID string          `json:"sale_id"`
	Zoho   ZohoInvoice     `json:"zoho_invoice"`
	QBO    QBOSalesReceipt `json:"qbo_sales_receipt"`
	Sheet  SheetRow        `json:"sheet_row"`
}

func BuildPreview(sale *domain.Sale, business domain.BusinessProfile) Preview {
	return Preview{
		SaleID: sale.ID,
		Zoho:   ToZohoInvoice(sale, business),
		QBO:    ToQBOSalesReceipt(sale),
		Sheet:  ToSheetRow(sale),
	}
}

var exportHeader = []string{
	"Date", "Sale ID", "Items", "Subtotal", "Discount", "Tax", "Total",
	"Payment", "Staff", "Control Number", "Status",
}

// ExportWorkbook renders the sales ledger as an xlsx workbook and
// returns the serialized file. Voided sales are included with their
// status marked so the accounting side can reconcile reversals.
func ExportWorkbook(sales []domain.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sales"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for rowIdx := range sales {
		sale := sales[rowIdx]
		row := ToSheetRow(&sale)
		values := append([]string{}, row...)
		values = append(values, string(sale.Status))
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cents(v int64) float64 {
	return float64(v) / 100
}
