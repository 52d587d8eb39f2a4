// Package money implements the bill arithmetic used across checkout,
// collections and reporting. Amounts are computed on decimals and rounded
// half-up to 2 places after every intermediate multiplication or sum;
// totals diverge on edge-case prices if the rounding order changes.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half-up to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// LineTotal returns the rounded quantity * selling price for one line.
func LineTotal(qty, sellingPrice float64) float64 {
	total := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(sellingPrice))
	f, _ := total.Round(2).Float64()
	return f
}

// LineProfit returns the rounded (selling - cost) * quantity for one line.
func LineProfit(qty, sellingPrice, costPrice float64) float64 {
	margin := decimal.NewFromFloat(sellingPrice).Sub(decimal.NewFromFloat(costPrice))
	f, _ := margin.Mul(decimal.NewFromFloat(qty)).Round(2).Float64()
	return f
}

// Subtotal sums already-rounded line totals and rounds the sum.
func Subtotal(lineTotals []float64) float64 {
	sum := decimal.Zero
	for _, t := range lineTotals {
		sum = sum.Add(decimal.NewFromFloat(t))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// TaxAmount computes (subtotal - discount) * rate / 100, rounded.
// The discount is an absolute amount, the rate a percentage.
func TaxAmount(subtotal, discount, rate float64) float64 {
	base := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount))
	tax := base.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100))
	f, _ := tax.Round(2).Float64()
	return f
}

// Total computes subtotal - discount + tax, rounded.
func Total(subtotal, discount, tax float64) float64 {
	total := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount)).Add(decimal.NewFromFloat(tax))
	f, _ := total.Round(2).Float64()
	return f
}

// ClampDiscount limits a flat discount to [0, subtotal].
func ClampDiscount(discount, subtotal float64) float64 {
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// ClampRate limits a percentage to [0, 100].
func ClampRate(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// PercentToAmount converts a percentage discount into an absolute amount
// against the subtotal, clamping the percentage to [0, 100] first.
func PercentToAmount(pct, subtotal float64) float64 {
	pct = ClampRate(pct)
	amount := decimal.NewFromFloat(subtotal).Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	f, _ := amount.Round(2).Float64()
	return f
}

// Equal reports whether two amounts match within rounding tolerance.
func Equal(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThan(decimal.NewFromFloat(0.005))
}
