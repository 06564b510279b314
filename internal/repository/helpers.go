package repository

import "math"

// round2 rounds aggregate values to two decimal places before they enter a
// partial record.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rate100 converts count/total into a percentage, reporting 0 on a zero
// denominator instead of NaN.
func rate100(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}
