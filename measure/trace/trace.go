package trace

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

// Sample is one point of a count trace.
type Sample struct {
	Tau       float64 // inter-pulse spacing in s
	Up        float64 // counts/s, final π/2 pulse projecting up
	Down      float64 // counts/s, final π/2 pulse projecting down
	SigmaUp   float64
	SigmaDown float64
}

// CountTrace is a sweep of samples ordered by increasing τ.
type CountTrace []Sample

// Taus returns the τ column.
func (t CountTrace) Taus() []float64 {
	out := make([]float64, len(t))
	for i, s := range t {
		out[i] = s.Tau
	}
	return out
}

// Validate checks that every value is finite and τ is positive and strictly
// increasing.
func (t CountTrace) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: trace: empty trace", core.ErrInvalidInput)
	}

	for i, s := range t {
		if !core.AllFinite([]float64{s.Tau, s.Up, s.Down, s.SigmaUp, s.SigmaDown}) {
			return fmt.Errorf("%w: trace: sample %d has a non-finite value", core.ErrInvalidInput, i)
		}
		if s.Tau <= 0 {
			return fmt.Errorf("%w: trace: sample %d: tau must be > 0: %v", core.ErrInvalidInput, i, s.Tau)
		}
		if i > 0 && s.Tau <= t[i-1].Tau {
			return fmt.Errorf("%w: trace: sample %d: tau %v does not increase (previous %v)",
				core.ErrInvalidInput, i, s.Tau, t[i-1].Tau)
		}
	}

	return nil
}
