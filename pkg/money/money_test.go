package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCentsString(t *testing.T) {
	assert.Equal(t, "24.00", Cents(2400).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "10.00", Cents(1000).String())
}

func TestFromDecimal(t *testing.T) {
	assert.Equal(t, Cents(1250), FromDecimal(decimal.RequireFromString("12.50")))
	assert.Equal(t, Cents(200), FromDecimal(decimal.RequireFromString("2")))
	assert.Equal(t, Cents(1), FromDecimal(decimal.RequireFromString("0.005")))
}

func TestFromFloatRoundTrip(t *testing.T) {
	assert.Equal(t, Cents(1099), FromFloat(10.99))
	assert.InDelta(t, 10.99, Cents(1099).Float(), 1e-9)
}
