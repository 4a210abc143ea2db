// Package depth converts a fitted spin-noise spectrum into the distance
// between an NV centre and a nuclear-spin bath.
//
// The bath is modelled as a half-infinite layer of spin-½ nuclei above a
// flat diamond surface. Its RMS field at depth z is
//
//	B_rms = C1·μ0·μ·√(ρ/z³)
//
// so a measured B_rms gives z = (ρ·(C1·μ0·μ/B_rms)²)^(1/3).
package depth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/spectrum"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
)

const (
	// VacuumPermeability is μ0 in T·m/A.
	VacuumPermeability = 4 * math.Pi * 1e-7

	// ProtonDensity is the ¹H number density of immersion oil and most
	// organic layers, in m⁻³.
	ProtonDensity = 5e28
	// ProtonMoment is the proton magnetic moment in J/T.
	ProtonMoment = 1.41060674333e-26
	// HalfSpaceGeometryFactor is C1 for a half-infinite bath of spin-½
	// nuclei.
	HalfSpaceGeometryFactor = 0.05

	// MinField is the smallest B_rms in T that yields a finite depth.
	MinField = 1e-12
)

// Boron11GeometryFactor is the C1 candidate for an ¹¹B bath. It is not
// settled whether it covers the full spectrum or only the central
// transition, so no Sample preset uses it.
var Boron11GeometryFactor = math.Sqrt(0.654786) / (4 * math.Pi)

// Sample describes the nuclear-spin bath.
type Sample struct {
	Density  float64 // ρ, m⁻³
	Moment   float64 // μ, J/T
	Geometry float64 // C1
}

// Protons returns the default ¹H half-space bath.
func Protons() Sample {
	return Sample{
		Density:  ProtonDensity,
		Moment:   ProtonMoment,
		Geometry: HalfSpaceGeometryFactor,
	}
}

// Validate reports an error unless every parameter is positive and finite.
func (s Sample) Validate() error {
	for _, v := range []float64{s.Density, s.Moment, s.Geometry} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: depth: sample parameters must be > 0: %+v", core.ErrInvalidInput, s)
		}
	}
	return nil
}

// Depth returns the distance in m at which the bath produces field b.
func (s Sample) Depth(b float64) float64 {
	r := s.Geometry * VacuumPermeability * s.Moment / b
	return math.Cbrt(s.Density * r * r)
}

// Field returns the RMS field in T that the bath produces at depth z.
func (s Sample) Field(z float64) float64 {
	return s.Geometry * VacuumPermeability * s.Moment * math.Sqrt(s.Density/(z*z*z))
}

// Result is the depth estimate with its propagated uncertainty.
type Result struct {
	Field    float64 // B_rms, T
	Depth    float64 // z, m
	FieldErr float64 // δB, T
	DepthErr float64 // δz, m
}

// Estimate integrates the Lorentzian part of r.Model over freq, converts the
// noise power into B_rms = √(2I) and B_rms into a depth. The fractional fit
// error r.PercentError/100 is carried over to both field and depth.
//
// When B_rms is below MinField the Result carries an infinite depth and the
// error wraps ErrModelViolation.
func Estimate(r noisefit.Report, freq []float64, s Sample) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if len(freq) < 2 {
		return Result{}, fmt.Errorf("%w: depth: need at least two frequencies, got %d", core.ErrInvalidInput, len(freq))
	}

	peak := make([]float64, len(freq))
	r.Model.PeakInto(peak, freq)
	power := spectrum.Trapezoid(freq, peak)

	if !(power >= 0) || math.IsInf(power, 0) {
		return Result{}, fmt.Errorf("%w: depth: peak noise power %v is not a finite non-negative value",
			core.ErrModelViolation, power)
	}

	frac := r.PercentError / 100
	field := math.Sqrt(2 * power)
	res := Result{
		Field:    field,
		FieldErr: frac * field,
	}

	if field < MinField {
		res.Depth = math.Inf(1)
		res.DepthErr = math.Inf(1)
		return res, fmt.Errorf("%w: depth: B_rms %.3g T is below %.0e T", core.ErrModelViolation, field, MinField)
	}

	res.Depth = s.Depth(field)
	res.DepthErr = frac * res.Depth
	return res, nil
}
