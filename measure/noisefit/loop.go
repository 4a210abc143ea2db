package noisefit

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

// Outcome tags how a descent loop ended.
type Outcome int

const (
	// Converged means the residual stopped improving.
	Converged Outcome = iota
	// Capped means the iteration limit was reached first.
	Capped
	// Diverged means a non-finite residual was met.
	Diverged
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Capped:
		return "capped"
	case Diverged:
		return "diverged"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// LoopTrace records one run of a descent loop. Residuals holds the residual
// of the starting point followed by that of every accepted step, so it never
// increases.
type LoopTrace struct {
	Name       string
	Outcome    Outcome
	Iterations int
	Residuals  []float64
}

// Final returns the last accepted residual.
func (t LoopTrace) Final() float64 {
	if len(t.Residuals) == 0 {
		return 0
	}
	return t.Residuals[len(t.Residuals)-1]
}

// candidate is the fitter state threaded through the loops: a model and its
// residual.
type candidate struct {
	model    NoiseModel
	residual float64
}

// probe evaluates a starting model. Inner loops return the model unchanged
// with its residual; outer loops run the next loop down from it.
type probe func(NoiseModel) (candidate, error)

// stepper proposes the next model of a loop; ok is false when the step would
// leave the parameter domain.
type stepper func(NoiseModel) (next NoiseModel, ok bool)

// descend walks start, step(start), step(step(start)), ... for as long as the
// probed residual improves and returns the last improving candidate.
func (f *fitter) descend(name string, start NoiseModel, step stepper, eval probe) (candidate, error) {
	lt := LoopTrace{Name: name}

	best, err := eval(start)
	if err != nil {
		return candidate{}, err
	}
	if !core.IsFinite(best.residual) {
		lt.Outcome = Diverged
		f.record(lt)
		return candidate{}, fmt.Errorf("%w: noisefit: %s: non-finite residual at start", core.ErrNotConverged, name)
	}
	lt.Residuals = append(lt.Residuals, best.residual)

	for {
		next, ok := step(best.model)
		if !ok {
			break
		}
		if lt.Iterations >= f.cfg.maxIterations {
			lt.Outcome = Capped
			f.record(lt)
			return candidate{}, fmt.Errorf("%w: noisefit: %s: no convergence after %d iterations",
				core.ErrNotConverged, name, lt.Iterations)
		}
		lt.Iterations++

		c, err := eval(next)
		if err != nil {
			return candidate{}, err
		}
		if !core.IsFinite(c.residual) {
			lt.Outcome = Diverged
			f.record(lt)
			return candidate{}, fmt.Errorf("%w: noisefit: %s: non-finite residual after %d iterations",
				core.ErrNotConverged, name, lt.Iterations)
		}
		if !core.Improves(c.residual, best.residual) {
			break
		}

		best = c
		lt.Residuals = append(lt.Residuals, c.residual)
	}

	lt.Outcome = Converged
	f.record(lt)
	return best, nil
}

func (f *fitter) record(t LoopTrace) {
	f.loops = append(f.loops, t)
	f.log.Debug().
		Str("loop", t.Name).
		Stringer("outcome", t.Outcome).
		Int("iterations", t.Iterations).
		Float64("residual", t.Final()).
		Msg("loop finished")
}
