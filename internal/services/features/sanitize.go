package features

import "math"

// Sanitize returns nil for NaN and ±Inf, otherwise a pointer to v.
func Sanitize(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
