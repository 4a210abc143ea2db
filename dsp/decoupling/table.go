package decoupling

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/spectrum"
)

// Table holds the filter spectra of a whole τ sweep on one shared frequency
// grid. Row i belongs to Tau[i]. A Table is read-only after BuildTable
// returns.
type Table struct {
	Tau   []float64
	Freq  []float64
	Power [][]float64
	Order int
	Band  Band
	// Norm is 16·order·step; Norm·Power[i][k] is |F(f_k; τ_i)|² in s².
	Norm float64
}

// BuildTable synthesizes the filter spectrum of every τ in taus, which must
// be positive and strictly increasing, on the band returned by BandFor.
func BuildTable(taus []float64, order, fftSize int, opts ...SynthOption) (*Table, error) {
	band, err := BandFor(taus)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(taus); i++ {
		if !(taus[i] > taus[i-1]) {
			return nil, fmt.Errorf("%w: decoupling: tau must be strictly increasing at index %d", core.ErrInvalidInput, i)
		}
	}

	syn, err := NewSynthesizer(order, fftSize, opts...)
	if err != nil {
		return nil, err
	}

	return syn.Table(taus, band)
}

// Table synthesizes one row per τ on band using s.
func (s *Synthesizer) Table(taus []float64, band Band) (*Table, error) {
	first, last, err := s.binRange(band)
	if err != nil {
		return nil, err
	}

	if last-first < 2 {
		return nil, fmt.Errorf("%w: decoupling: band [%v, %v] Hz holds fewer than two bins",
			core.ErrNumerical, band.Lo, band.Hi)
	}

	t := &Table{
		Tau:   append([]float64(nil), taus...),
		Freq:  spectrum.Frequencies(first, last, s.fftSize, s.step),
		Power: make([][]float64, len(taus)),
		Order: s.order,
		Band:  band,
		Norm:  s.Norm(),
	}

	for i, tau := range taus {
		row := make([]float64, last-first)
		if err := s.bandPower(row, tau, first); err != nil {
			return nil, err
		}
		t.Power[i] = row
	}

	return t, nil
}

// Len returns the number of τ rows M.
func (t *Table) Len() int { return len(t.Tau) }

// Bins returns the number of frequency bins K.
func (t *Table) Bins() int { return len(t.Freq) }

// Step returns the frequency spacing Δf of the shared grid.
func (t *Table) Step() float64 {
	if len(t.Freq) < 2 {
		return 0
	}
	return t.Freq[1] - t.Freq[0]
}

// Row returns the spectrum of row i. The slices alias the table and must not
// be modified.
func (t *Table) Row(i int) Spectrum {
	return Spectrum{Freq: t.Freq, Power: t.Power[i]}
}
