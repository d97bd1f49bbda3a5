package util

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ramp maps x linearly from [lo, hi] onto [0, 1], clamped. A degenerate
// range (hi <= lo) turns it into a step at hi.
func Ramp(x, lo, hi float64) float64 {
	if hi <= lo {
		if x >= hi {
			return 1
		}
		return 0
	}
	return Clamp((x-lo)/(hi-lo), 0, 1)
}

// SafeDiv divides num by den, returning def when den is zero.
func SafeDiv(num, den, def float64) float64 {
	if den == 0 {
		return def
	}
	return num / den
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
