package decoupling

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

const (
	// SlotsPerOrder is the number of π-pulse slots per sequence order: an
	// XY8-k sequence is modelled with 16·k sign flips of the modulation.
	SlotsPerOrder = 16

	// DefaultTimeStep is the sampling interval of the modulation waveform.
	DefaultTimeStep = 1e-9

	// stepTolerance absorbs representation error in τ/step so that τ values
	// that are exact multiples of the step are not floored one sample short.
	stepTolerance = 1e-6
)

// HalfPeriodSamples returns n = ⌊τ/step⌋, the number of waveform samples per
// inter-pulse spacing.
func HalfPeriodSamples(tau, step float64) int {
	return int(math.Floor(tau/step + stepTolerance))
}

// Length returns the waveform length L = 16·order·n for spacing tau.
func Length(tau float64, order int, step float64) int {
	return SlotsPerOrder * order * HalfPeriodSamples(tau, step)
}

// Modulation returns the ±1 modulation of an XY8-order sequence with
// inter-pulse spacing tau, sampled every step seconds.
//
// The first half-interval is +1, the 16·order−1 interior intervals alternate
// sign starting with −1, and the closing interval runs to the end of the
// waveform at +1. For even n the closing interval is exactly n/2 samples;
// for odd n it takes the extra sample so the waveform keeps zero mean.
func Modulation(tau float64, order int, step float64) ([]float64, error) {
	return ModulationInto(nil, tau, order, step)
}

// ModulationInto is Modulation writing into dst, which is grown when its
// capacity is below the waveform length. The result aliases dst when it fits.
func ModulationInto(dst []float64, tau float64, order int, step float64) ([]float64, error) {
	if err := validate(tau, order, step); err != nil {
		return nil, err
	}

	n := HalfPeriodSamples(tau, step)
	slots := SlotsPerOrder * order
	length := slots * n
	half := n / 2

	v := core.EnsureLen(dst, length)
	for i := 0; i < half; i++ {
		v[i] = 1
	}

	sign := -1.0
	for j := 0; j < slots-1; j++ {
		start := half + j*n
		for i := start; i < start+n; i++ {
			v[i] = sign
		}
		sign = -sign
	}

	for i := half + (slots-1)*n; i < length; i++ {
		v[i] = 1
	}

	return v, nil
}

func validate(tau float64, order int, step float64) error {
	if !(step > 0) || !core.IsFinite(step) {
		return fmt.Errorf("%w: decoupling: time step must be > 0: %v", core.ErrInvalidInput, step)
	}
	if !core.IsFinite(tau) || HalfPeriodSamples(tau, step) < 1 {
		return fmt.Errorf("%w: decoupling: tau %v is shorter than one time step %v", core.ErrInvalidInput, tau, step)
	}
	if order < 1 {
		return fmt.Errorf("%w: decoupling: sequence order must be >= 1: %d", core.ErrInvalidInput, order)
	}
	return nil
}
