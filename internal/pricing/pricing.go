// Package pricing computes checkout totals. Everything here is a pure
// function of its inputs: the service recomputes totals on every cart
// mutation instead of caching them, so displayed figures can never
// drift from the live cart.
package pricing

import (
	"math"

	"veira/backend/internal/domain"
)

// DefaultVATRate is the Kenyan standard VAT rate. Prices are
// tax-inclusive, so the tax component is backed out of the total rather
// than added on top.
const DefaultVATRate = 0.16

// Subtotal sums line totals in cents.
func Subtotal(lines []domain.CartLine) int64 {
	var sum int64
	for _, line := range lines {
		sum += line.LineTotalCents
	}
	return sum
}

// ResolveDiscount turns a discount configuration into an absolute cent
// amount, clamped to [0, subtotal]. A percentage above 100 or a fixed
// amount above the subtotal therefore floors the total at zero instead
// of producing a negative total.
func ResolveDiscount(subtotalCents int64, discount domain.DiscountConfig) int64 {
	var resolved int64
	switch discount.Type {
	case domain.DiscountPercentage:
		resolved = int64(math.Round(float64(subtotalCents) * discount.Value / 100))
	case domain.DiscountFixed:
		resolved = int64(math.Round(discount.Value))
	default:
		resolved = 0
	}
	if resolved < 0 {
		resolved = 0
	}
	if resolved > subtotalCents {
		resolved = subtotalCents
	}
	return resolved
}

// TaxComponent extracts the VAT share of a tax-inclusive total:
// total * rate / (1 + rate). For rate 0.16 and total 11600 this is
// exactly 1600.
func TaxComponent(totalCents int64, rate float64) int64 {
	if rate <= 0 || totalCents <= 0 {
		return 0
	}
	return int64(math.Round(float64(totalCents) * rate / (1 + rate)))
}

// ComputeTotals derives subtotal, discount, total and tax for a cart.
// Deterministic, side-effect free, and safe to call on every render.
func ComputeTotals(lines []domain.CartLine, discount domain.DiscountConfig, taxRate float64) domain.Totals {
	subtotal := Subtotal(lines)
	resolved := ResolveDiscount(subtotal, discount)
	total := subtotal - resolved

	return domain.Totals{
		SubtotalCents: subtotal,
		DiscountCents: resolved,
		TotalCents:    total,
		TaxCents:      TaxComponent(total, taxRate),
	}
}
