package residual_test

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/stats/residual"
)

func ExampleCalculate() {
	s := residual.Calculate([]float64{1, 1, 1, 1}, []float64{1, 0.5, 1, 1.5})
	fmt.Printf("rms=%.3f max=%.1f@%d err=%.1f%%\n", s.RMS, s.MaxAbs, s.MaxPos, s.PercentError)

	// Output:
	// rms=0.354 max=0.5@1 err=25.0%
}
