package noisefit

import (
	"math"

	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/dsp/spectrum"
)

// Coupling returns γe²·tbl.Norm, the factor between the overlap integral of
// S with a stored table row and the decoherence exponent.
func Coupling(tbl *decoupling.Table) float64 {
	return ElectronGyromagneticRatio * ElectronGyromagneticRatio * tbl.Norm
}

// forward evaluates the contrast model on one table. It reuses its buffers
// and is not safe for concurrent use.
type forward struct {
	tbl     *decoupling.Table
	kappa   float64
	density []float64
	product []float64
}

func newForward(tbl *decoupling.Table) *forward {
	return &forward{
		tbl:     tbl,
		kappa:   Coupling(tbl),
		density: make([]float64, tbl.Bins()),
		product: make([]float64, tbl.Bins()),
	}
}

// predict writes ŷ_i for the rows in idx into dst[i], or for every row when
// idx is nil.
func (fw *forward) predict(dst []float64, m NoiseModel, idx []int) {
	m.DensityInto(fw.density, fw.tbl.Freq)

	if idx == nil {
		for i := range fw.tbl.Power {
			dst[i] = fw.contrast(i)
		}
		return
	}

	for _, i := range idx {
		dst[i] = fw.contrast(i)
	}
}

func (fw *forward) contrast(row int) float64 {
	overlap := spectrum.Weighted(fw.tbl.Freq, fw.density, fw.tbl.Power[row], fw.product)
	return math.Exp(-fw.kappa * overlap)
}

// Predict returns the modelled contrast for every row of tbl.
func Predict(tbl *decoupling.Table, m NoiseModel) []float64 {
	out := make([]float64, tbl.Len())
	newForward(tbl).predict(out, m, nil)
	return out
}
