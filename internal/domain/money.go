package domain

import "github.com/shopspring/decimal"

// Round2 rounds a money amount to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Mean2 returns the arithmetic mean of values rounded to 2 decimal places, or 0 when empty.
// The sum is accumulated in decimal so that binary float error does not leak into the rounding.
func Mean2(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).Float64()
	return f
}
