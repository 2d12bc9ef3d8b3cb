// Package cart holds the ephemeral line items an operator assembles
// before settlement. A Cart belongs to exactly one operator session and
// is never shared; serialization across sessions is the service's job.
package cart

import (
	"fmt"

	"veira/backend/internal/domain"
	"veira/backend/internal/pricing"
	"veira/backend/internal/store"
)

type Cart struct {
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{lines: make([]domain.CartLine, 0, 8)}
}

// AddItem merges qty units of the product into the cart, snapshotting
// name, price and cost at add time. The increment is checked against
// the product's live stock so the operator gets early feedback; on
// failure the cart is left exactly as it was. Checkout re-validates
// atomically since stock may change between add and settlement.
func (c *Cart) AddItem(product domain.ProductWithStock, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", store.ErrValidation)
	}
	if product.Stock < c.QuantityOf(product.ID)+qty {
		return fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
	}

	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			c.lines[i].Qty += qty
			c.lines[i].LineTotalCents = int64(c.lines[i].Qty) * c.lines[i].UnitPriceCents
			return nil
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		UnitCostCents:  product.CostCents,
		Qty:            qty,
		LineTotalCents: int64(qty) * product.PriceCents,
	})
	return nil
}

// SetQuantity replaces the quantity of an existing line. Quantities
// below 1 are clamped to 1; liveStock is the product's current stock
// for the branch being sold from.
func (c *Cart) SetQuantity(productID string, qty int, liveStock int) error {
	if qty < 1 {
		qty = 1
	}

	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if qty > liveStock {
			return fmt.Errorf("%w: %s", store.ErrInsufficientStock, c.lines[i].Name)
		}
		c.lines[i].Qty = qty
		c.lines[i].LineTotalCents = int64(qty) * c.lines[i].UnitPriceCents
		return nil
	}
	return fmt.Errorf("%w: product %s not in cart", store.ErrNotFound, productID)
}

// RemoveItem drops the line for productID. Idempotent.
func (c *Cart) RemoveItem(productID string) {
	kept := c.lines[:0]
	for _, line := range c.lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.lines = kept
}

// Clear empties the cart. Idempotent.
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
}

// QuantityOf reports how many units of a product are already in the cart.
func (c *Cart) QuantityOf(productID string) int {
	for _, line := range c.lines {
		if line.ProductID == productID {
			return line.Qty
		}
	}
	return 0
}

// Lines returns a copy of the cart's lines; mutating the result does
// not affect the cart.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) SubtotalCents() int64 {
	return pricing.Subtotal(c.lines)
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}
