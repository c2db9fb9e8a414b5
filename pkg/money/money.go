// Package money keeps all currency arithmetic in integer cents. Conversion to
// two-decimal display amounts happens only at the API boundary, so totals never
// accumulate floating point error.
package money

import "github.com/shopspring/decimal"

// Cents is an amount in the smallest currency unit.
type Cents int64

// Decimal returns the two-decimal representation of the amount.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Shift(-2)
}

// Float returns the amount as a float for JSON display payloads.
func (c Cents) Float() float64 {
	f, _ := c.Decimal().Float64()
	return f
}

// String formats the amount with exactly two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// FromDecimal converts a decimal currency amount (e.g. "12.50") into cents,
// rounding half up at the second decimal place.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// FromFloat converts a float amount into cents via decimal rounding.
func FromFloat(v float64) Cents {
	return FromDecimal(decimal.NewFromFloat(v))
}
