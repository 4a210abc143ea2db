package trace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

// DefaultTauMax is the longest inter-pulse spacing kept by [Normalize], the
// coherence limit of the XY8 sweep.
const DefaultTauMax = 268e-9

// Normalized is a contrast curve y(τ).
type Normalized struct {
	Tau []float64
	Y   []float64
}

// Len returns the number of samples.
func (n Normalized) Len() int { return len(n.Tau) }

// Range returns max(y) − min(y).
func (n Normalized) Range() float64 {
	if len(n.Y) == 0 {
		return 0
	}

	lo, hi := n.Y[0], n.Y[0]
	for _, y := range n.Y[1:] {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	return hi - lo
}

type config struct {
	tauMax float64
}

// Option configures [Normalize].
type Option func(*config)

// WithTauMax sets the largest τ retained. Non-positive values keep the
// default.
func WithTauMax(tauMax float64) Option {
	return func(cfg *config) {
		if tauMax > 0 {
			cfg.tauMax = tauMax
		}
	}
}

// Normalize converts a count trace into the contrast curve
//
//	y(τ) = (c_down − c_up) / (C₀_up − C₀_down)
//
// with the reference levels C₀_up = B/(1 − C/2) and C₀_down = C₀_up·(1 − C),
// where B is the mean of (c_up + c_down)/2 over the whole trace and C the
// fractional optical contrast. Samples with τ above the configured maximum
// are dropped; file order is kept.
func Normalize(t CountTrace, contrast float64, opts ...Option) (Normalized, error) {
	cfg := config{tauMax: DefaultTauMax}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !(contrast > 0 && contrast < 1) {
		return Normalized{}, fmt.Errorf("%w: trace: contrast must be in (0, 1): %v", core.ErrInvalidInput, contrast)
	}
	if err := t.Validate(); err != nil {
		return Normalized{}, err
	}

	mid := make([]float64, len(t))
	for i, s := range t {
		if s.Up+s.Down <= 0 {
			return Normalized{}, fmt.Errorf("%w: trace: sample %d: total counts must be > 0", core.ErrInvalidInput, i)
		}
		mid[i] = (s.Up + s.Down) / 2
	}

	baseline := stat.Mean(mid, nil)
	refUp := baseline / (1 - contrast/2)
	refDown := refUp * (1 - contrast)
	span := refUp - refDown

	out := Normalized{}
	for _, s := range t {
		if s.Tau > cfg.tauMax {
			continue
		}
		out.Tau = append(out.Tau, s.Tau)
		out.Y = append(out.Y, (s.Down-s.Up)/span)
	}

	if out.Len() < 2 {
		return Normalized{}, fmt.Errorf("%w: trace: %d samples with tau <= %v, need at least 2",
			core.ErrInvalidInput, out.Len(), cfg.tauMax)
	}

	return out, nil
}
