package pipeline

import (
	"github.com/cockroachdb/apd/v3"
)

// Round2 rounds v to two decimal places using decimal half-even arithmetic.
// Aggregate and reporting columns are rounded through here so repeated runs
// over unchanged inputs converge to identical stored values instead of
// drifting through binary float rounding.
func Round2(v float64) float64 {
	var d apd.Decimal
	if _, err := d.SetFloat64(v); err != nil {
		return v
	}
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven
	var rounded apd.Decimal
	if _, err := ctx.Quantize(&rounded, &d, -2); err != nil {
		return v
	}
	f, err := rounded.Float64()
	if err != nil {
		return v
	}
	return f
}
