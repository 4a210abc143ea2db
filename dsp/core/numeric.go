package core

import "math"

const defaultEpsilon = 1e-12

// MachineEpsilon is the spacing between 1.0 and the next float64.
const MachineEpsilon = 2.220446049250313e-16

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// Improves reports whether next is strictly better (smaller) than best.
// The margin is relative to best only, so residuals far below 1 still
// compare by their own magnitude. A gap of at most MachineEpsilon·|best| is
// a tie and the earlier iterate wins.
func Improves(next, best float64) bool {
	if !(next < best) {
		return false
	}
	if math.IsInf(best, 1) {
		return true
	}

	return best-next > MachineEpsilon*math.Abs(best)
}

// IsFinite reports whether x is neither NaN nor ±Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// AllFinite reports whether every element of x is finite.
func AllFinite(x []float64) bool {
	for _, v := range x {
		if !IsFinite(v) {
			return false
		}
	}

	return true
}
