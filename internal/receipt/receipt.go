// Package receipt renders a committed sale as customer-facing output:
// a plain-text preview and an ESC/POS byte stream (base64) for thermal
// printers, with the eTIMS control number encoded as a QR code.
package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"

	"veira/backend/internal/domain"
)

type Receipt struct {
	SaleID       string `json:"sale_id"`
	PreviewText  string `json:"preview_text"`
	EscposBase64 string `json:"escpos_base64"`
	FileName     string `json:"file_name"`
}

func Build(sale *domain.Sale, business domain.BusinessProfile) Receipt {
	currency := business.Currency
	if currency == "" {
		currency = "KES"
	}
	name := business.Name
	if name == "" {
		name = "Veira POS"
	}

	lines := []string{
		name,
		"========================",
	}
	if business.Address != "" {
		lines = append(lines, business.Address)
	}
	if business.KRAPin != "" {
		lines = append(lines, "KRA PIN: "+business.KRAPin)
	}
	lines = append(lines,
		"Sale: "+sale.ID,
		"Date: "+sale.CreatedAt.Format("2006-01-02 15:04:05"),
		"Served by: "+sale.StaffName,
		"------------------------",
	)
	for _, item := range sale.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Qty))
		lines = append(lines, fmt.Sprintf("  %s", money(currency, item.LineTotalCents)))
	}
	lines = append(lines,
		"------------------------",
		"Subtotal : "+money(currency, sale.SubtotalCents),
	)
	if sale.DiscountCents > 0 {
		lines = append(lines, "Discount : -"+money(currency, sale.DiscountCents))
	}
	lines = append(lines,
		"VAT incl : "+money(currency, sale.TaxCents),
		"TOTAL    : "+money(currency, sale.TotalCents),
		"Paid via : "+string(sale.PaymentMethod),
	)
	for _, split := range sale.PaymentSplits {
		lines = append(lines, fmt.Sprintf("  %s: %s", split.Method, money(currency, split.AmountCents)))
	}
	if sale.Status == domain.SaleVoided {
		lines = append(lines, "*** VOIDED ***")
	}
	lines = append(lines,
		"------------------------",
		"CU: "+sale.ControlNumber,
		"========================",
		"Asante! Karibu tena.",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, qrBlock(sale.ControlNumber)...)
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return Receipt{
		SaleID:       sale.ID,
		PreviewText:  strings.Join(lines, "\n"),
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		FileName:     fmt.Sprintf("receipt-%s.bin", sale.ID),
	}
}

func money(currency string, cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}

// qrBlock emits the GS ( k sequence for a model-2 QR code carrying the
// control number. An empty control number produces no block.
func qrBlock(data string) []byte {
	if data == "" {
		return nil
	}

	out := make([]byte, 0, len(data)+32)
	// Model 2.
	out = append(out, 0x1d, 0x28, 0x6b, 0x04, 0x00, 0x31, 0x41, 0x32, 0x00)
	// Module size 6.
	out = append(out, 0x1d, 0x28, 0x6b, 0x03, 0x00, 0x31, 0x43, 0x06)
	// Error correction level M.
	out = append(out, 0x1d, 0x28, 0x6b, 0x03, 0x00, 0x31, 0x45, 0x31)
	// Store data.
	n := len(data) + 3
	out = append(out, 0x1d, 0x28, 0x6b, byte(n&0xff), byte(n>>8), 0x31, 0x50, 0x30)
	out = append(out, []byte(data)...)
	// Print.
	out = append(out, 0x1d, 0x28, 0x6b, 0x03, 0x00, 0x31, 0x51, 0x30)
	return out
}
