package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLine(t *testing.T) {
	amounts := ComputeLine(Line{
		Quantity:  d("2"),
		UnitPrice: d("100.00"),
		TaxRate:   d("10"),
	})

	require.True(t, amounts.Subtotal.Equal(d("200.00")), "subtotal %s", amounts.Subtotal)
	require.True(t, amounts.Tax.Equal(d("20.00")), "tax %s", amounts.Tax)
	require.True(t, amounts.Total.Equal(d("220.00")), "total %s", amounts.Total)
}

func TestComputeLineRoundsHalfUp(t *testing.T) {
	// 3 * 33.33 = 99.99; 99.99 * 7.5% = 7.49925 -> 7.50
	amounts := ComputeLine(Line{
		Quantity:  d("3"),
		UnitPrice: d("33.33"),
		TaxRate:   d("7.5"),
	})

	require.True(t, amounts.Tax.Equal(d("7.50")), "tax %s", amounts.Tax)
	require.True(t, amounts.Total.Equal(d("107.49")), "total %s", amounts.Total)
}

func TestTotalsWithDiscount(t *testing.T) {
	totals := Totals([]Line{
		{Quantity: d("2"), UnitPrice: d("100.00"), TaxRate: d("10")},
	}, d("10"))

	require.True(t, totals.Subtotal.Equal(d("200.00")))
	require.True(t, totals.TaxAmount.Equal(d("20.00")))
	require.True(t, totals.TotalBeforeDiscount.Equal(d("220.00")))
	require.True(t, totals.DiscountAmount.Equal(d("22.00")))
	require.True(t, totals.TotalAmount.Equal(d("198.00")))
}

func TestTotalsZeroDiscount(t *testing.T) {
	totals := Totals([]Line{
		{Quantity: d("1"), UnitPrice: d("50.00"), TaxRate: d("5")},
		{Quantity: d("4"), UnitPrice: d("12.25"), TaxRate: d("0")},
	}, decimal.Zero)

	require.True(t, totals.Subtotal.Equal(d("99.00")))
	require.True(t, totals.TaxAmount.Equal(d("2.50")))
	require.True(t, totals.DiscountAmount.Equal(decimal.Zero))
	require.True(t, totals.TotalAmount.Equal(d("101.50")))
}

func TestTotalsSumsRoundedParts(t *testing.T) {
	// Each line's tax is rounded before aggregation: 2 lines of
	// 10.01 * 2.5% = 0.25025 -> 0.25 each, so tax is 0.50, not
	// round(0.5005) of the unrounded sum.
	totals := Totals([]Line{
		{Quantity: d("1"), UnitPrice: d("10.01"), TaxRate: d("2.5")},
		{Quantity: d("1"), UnitPrice: d("10.01"), TaxRate: d("2.5")},
	}, decimal.Zero)

	require.True(t, totals.TaxAmount.Equal(d("0.50")), "tax %s", totals.TaxAmount)
}

func TestTotalsDeterministic(t *testing.T) {
	lines := []Line{
		{Quantity: d("3.5"), UnitPrice: d("19.99"), TaxRate: d("18")},
		{Quantity: d("1"), UnitPrice: d("0.99"), TaxRate: d("5")},
	}

	first := Totals(lines, d("12.5"))
	for i := 0; i < 100; i++ {
		again := Totals(lines, d("12.5"))
		require.True(t, first.TotalAmount.Equal(again.TotalAmount))
		require.True(t, first.DiscountAmount.Equal(again.DiscountAmount))
		require.True(t, first.TaxAmount.Equal(again.TaxAmount))
	}
}

func TestLineTotalInvariant(t *testing.T) {
	lines := []Line{
		{Quantity: d("2"), UnitPrice: d("37.77"), TaxRate: d("12")},
		{Quantity: d("5"), UnitPrice: d("8.10"), TaxRate: d("18")},
		{Quantity: d("0.25"), UnitPrice: d("99.99"), TaxRate: d("0")},
	}

	sumTotals := decimal.Zero
	for _, l := range lines {
		sumTotals = sumTotals.Add(ComputeLine(l).Total)
	}

	totals := Totals(lines, decimal.Zero)
	require.True(t, sumTotals.Equal(totals.Subtotal.Add(totals.TaxAmount)))
}
