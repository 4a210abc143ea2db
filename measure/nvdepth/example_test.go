package nvdepth_test

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/measure/nvdepth"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

func ExampleEstimateDepth() {
	// Equal counts in both projections carry no noise signal.
	var t trace.CountTrace
	for i := range 16 {
		t = append(t, trace.Sample{Tau: float64(50+10*i) * 1e-9, Up: 1000, Down: 1000, SigmaUp: 30, SigmaDown: 30})
	}

	p := nvdepth.DefaultParams(0.2)
	p.FFTSize = 1 << 15

	rep, res, err := nvdepth.EstimateDepth(t, p)
	fmt.Println(rep.NoSignal, errors.Is(err, core.ErrModelViolation), math.IsInf(res.Depth, 1))
	// Output: true true true
}
