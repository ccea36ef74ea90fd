// Package inventory owns every stock-quantity mutation rule. Callers must
// never touch Product.StockQuantity directly; the check/reduce/increase
// primitives here are the only mutators, and persistence goes through a
// Store that row-locks the product for the duration of the transaction.
package inventory

import "github.com/tallyforge/tallyforge/internal/catalog/products"

// HasSufficientStock reports whether a product can cover the required
// quantity. A nil stock quantity means the product is not stocked and
// never passes; service-type products are not checked at all (that
// policy belongs to the caller).
func HasSufficientStock(p *products.Product, required int64) bool {
	return p.StockQuantity != nil && *p.StockQuantity >= required
}

// ReduceStock returns the new stock level after removing qty. Nil stock
// is treated as zero and the result never goes below zero; callers are
// expected to pre-validate sufficiency, the clamp is a guard, not a check.
func ReduceStock(p *products.Product, qty int64) int64 {
	current := int64(0)
	if p.StockQuantity != nil {
		current = *p.StockQuantity
	}
	if current-qty < 0 {
		return 0
	}
	return current - qty
}

// IncreaseStock returns the new stock level after adding qty. Nil stock
// is treated as zero.
func IncreaseStock(p *products.Product, qty int64) int64 {
	current := int64(0)
	if p.StockQuantity != nil {
		current = *p.StockQuantity
	}
	return current + qty
}
