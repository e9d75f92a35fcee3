// Package analytics is the deterministic health scoring engine. Every evaluator
// is a pure function of its input: no I/O, no shared state and no error returns.
// Each result carries a breakdown of the rules that fired so that any downstream
// explanation can be checked against the arithmetic that produced the score.
package analytics

import "math"

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero and converts to int.
func Round(v float64) int {
	return int(math.Round(v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
