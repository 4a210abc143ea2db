package noisefit

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
)

const (
	// BackgroundScale keeps K and B of order unity while S is in T²/Hz.
	BackgroundScale = 1e-18

	// ElectronGyromagneticRatio is γe of the NV electron spin, 2π·28.024951 GHz/T.
	ElectronGyromagneticRatio = 2 * math.Pi * 28.024951e9 // rad/(s·T)
)

// NoiseModel parameterizes the spin-noise spectral density.
type NoiseModel struct {
	A     float64 // peak area, T²
	Gamma float64 // half width at half maximum, Hz
	F0    float64 // line centre, Hz
	K     float64 // background slope, ×1e-18 T²/Hz²
	B     float64 // background intercept, ×1e-18 T²/Hz
}

// Peak returns the Lorentzian term at f.
func (m NoiseModel) Peak(f float64) float64 {
	d := f - m.F0
	return m.A / math.Pi * m.Gamma / (d*d + m.Gamma*m.Gamma)
}

// Background returns the linear term at f.
func (m NoiseModel) Background(f float64) float64 {
	return (m.K*f + m.B) * BackgroundScale
}

// Density returns S(f).
func (m NoiseModel) Density(f float64) float64 {
	return m.Peak(f) + m.Background(f)
}

// DensityInto evaluates S on freq into dst.
func (m NoiseModel) DensityInto(dst, freq []float64) {
	for i, f := range freq[:len(dst)] {
		dst[i] = m.Density(f)
	}
}

// PeakInto evaluates the Lorentzian term on freq into dst.
func (m NoiseModel) PeakInto(dst, freq []float64) {
	for i, f := range freq[:len(dst)] {
		dst[i] = m.Peak(f)
	}
}

// Validate reports an error unless A and Gamma are positive, F0 lies inside
// [lo, hi] and B is non-negative.
func (m NoiseModel) Validate(lo, hi float64) error {
	switch {
	case !(m.A > 0):
		return fmt.Errorf("%w: noisefit: amplitude collapsed to %v", core.ErrModelViolation, m.A)
	case !(m.Gamma > 0):
		return fmt.Errorf("%w: noisefit: width collapsed to %v", core.ErrModelViolation, m.Gamma)
	case !(m.F0 >= lo && m.F0 <= hi):
		return fmt.Errorf("%w: noisefit: centre %v Hz outside band [%v, %v]", core.ErrModelViolation, m.F0, lo, hi)
	case m.B < 0:
		return fmt.Errorf("%w: noisefit: negative background intercept %v", core.ErrModelViolation, m.B)
	}
	return nil
}
