// Package estimating implements the money math for estimates and their
// line items. All arithmetic runs on decimals; float64 only appears at the
// API boundary.
package estimating

import "github.com/shopspring/decimal"

// DefaultMarginPercent is applied to new estimates with no explicit margin
var DefaultMarginPercent = decimal.NewFromInt(20)

var oneHundred = decimal.NewFromInt(100)

// Totals holds the recomputed rollups for one estimate version
type Totals struct {
	LaborTotal    decimal.Decimal
	MaterialTotal decimal.Decimal
	Subtotal      decimal.Decimal
	MarginAmount  decimal.Decimal
	Total         decimal.Decimal
}

// LineItemTotal computes quantity times unit cost rounded half-up to two
// decimal places. A missing quantity or unit cost yields zero; partial
// line items are normal while an estimator is still filling a row in.
func LineItemTotal(quantity, unitCost decimal.NullDecimal) decimal.Decimal {
	if !quantity.Valid || !unitCost.Valid {
		return decimal.Zero
	}
	return quantity.Decimal.Mul(unitCost.Decimal).Round(2)
}

// Compute rolls line totals up into estimate totals. The margin is applied
// on price, not cost: total = subtotal / (1 - margin/100). A margin of
// 100% or more would make the denominator zero or negative, so the total
// degrades to the subtotal instead of dividing.
func Compute(laborTotals, materialTotals []decimal.Decimal, marginPercent decimal.Decimal) Totals {
	labor := sum(laborTotals).Round(2)
	material := sum(materialTotals).Round(2)
	subtotal := labor.Add(material).Round(2)

	total := subtotal
	marginDecimal := marginPercent.Div(oneHundred)
	if marginDecimal.LessThan(decimal.NewFromInt(1)) {
		total = subtotal.Div(decimal.NewFromInt(1).Sub(marginDecimal)).Round(2)
	}

	return Totals{
		LaborTotal:    labor,
		MaterialTotal: material,
		Subtotal:      subtotal,
		MarginAmount:  total.Sub(subtotal).Round(2),
		Total:         total,
	}
}

func sum(values []decimal.Decimal) decimal.Decimal {
	t := decimal.Zero
	for _, v := range values {
		t = t.Add(v)
	}
	return t
}
