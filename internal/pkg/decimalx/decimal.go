// Package decimalx wraps shopspring/decimal for float64 money arithmetic.
package decimalx

import (
	"math"

	"github.com/shopspring/decimal"
)

var Zero = decimal.Zero

// From converts a float, mapping NaN/Inf to zero. Callers that must not see
// that substitution validate with Positive or NonNegative first.
func From(val float64) decimal.Decimal {
	if !Finite(val) {
		return Zero
	}
	return decimal.NewFromFloat(val)
}

func Float(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

func Finite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Positive reports a finite value > 0.
func Positive(val float64) bool {
	return Finite(val) && val > 0
}

// NonNegative reports a finite value >= 0.
func NonNegative(val float64) bool {
	return Finite(val) && val >= 0
}
