package spectrum

import (
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/integrate"
)

// Trapezoid integrates samples y taken at abscissae x with the trapezoidal
// rule. x must be increasing. Fewer than two samples integrate to zero.
func Trapezoid(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return integrate.Trapezoidal(x, y)
}

// Weighted integrates the pointwise product a·b over x. scratch receives the
// product and must have len(x) elements.
func Weighted(x, a, b, scratch []float64) float64 {
	if len(x) < 2 || len(a) != len(x) || len(b) != len(x) || len(scratch) != len(x) {
		return 0
	}

	vecmath.MulBlock(scratch, a, b)
	return integrate.Trapezoidal(x, scratch)
}
