package physics

import (
	"math"
	"strconv"
)

// RoundSig rounds x to sig significant figures. Rounding is decided on the
// exact binary value and ties go to the even digit, so RoundSig(0.125, 2)
// is 0.12. Zero returns zero, NaN and infinities are returned unchanged,
// and sig below 1 is treated as 1.
func RoundSig(x float64, sig int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	if sig < 1 {
		sig = 1
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'e', sig-1, 64), 64)
	if err != nil {
		// only reachable when rounding up past the largest float64
		return x
	}
	return rounded
}
