// Package money implements the monetary arithmetic shared by quotations,
// invoices and settlements. All functions are pure; amounts are rounded
// half-up to two decimal places at every intermediate step, so document
// totals are sums of already-rounded parts.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Line is the input for a single document line.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
}

// LineAmounts holds the computed amounts of a single line.
type LineAmounts struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeLine calculates subtotal, tax and total for one line.
func ComputeLine(l Line) LineAmounts {
	subtotal := Round2(l.Quantity.Mul(l.UnitPrice))
	tax := Round2(subtotal.Mul(l.TaxRate).Div(hundred))
	return LineAmounts{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// DocumentTotals aggregates a document's financial summary.
type DocumentTotals struct {
	Subtotal            decimal.Decimal
	TaxAmount           decimal.Decimal
	TotalBeforeDiscount decimal.Decimal
	DiscountAmount      decimal.Decimal
	TotalAmount         decimal.Decimal
}

// Totals aggregates line amounts and applies an overall percentage discount.
func Totals(lines []Line, discountPercent decimal.Decimal) DocumentTotals {
	subtotal := decimal.Zero
	taxAmount := decimal.Zero
	for _, l := range lines {
		amounts := ComputeLine(l)
		subtotal = subtotal.Add(amounts.Subtotal)
		taxAmount = taxAmount.Add(amounts.Tax)
	}

	totalBeforeDiscount := subtotal.Add(taxAmount)
	discountAmount := decimal.Zero
	if discountPercent.IsPositive() {
		discountAmount = Round2(totalBeforeDiscount.Mul(discountPercent).Div(hundred))
	}

	return DocumentTotals{
		Subtotal:            subtotal,
		TaxAmount:           taxAmount,
		TotalBeforeDiscount: totalBeforeDiscount,
		DiscountAmount:      discountAmount,
		TotalAmount:         totalBeforeDiscount.Sub(discountAmount),
	}
}
