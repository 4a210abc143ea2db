package decoupling

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/spectrum"
)

// powerTransform computes the one-sided |X[k]|² of a real waveform
// zero-padded to a fixed DFT size.
type powerTransform interface {
	size() int
	backend() string
	// power writes |X[k]|² for k = 0..size/2 into dst.
	power(dst, v []float64) error
}

// newPowerTransform uses an algo-fft plan for power-of-two sizes and gonum's
// FFTPACK port for everything else. NewPlan64 accepts some composite sizes
// (1e6, 2e6) but returns a misplaced, mis-scaled spectrum for them.
func newPowerTransform(fftSize int) (powerTransform, error) {
	if fftSize < 2 {
		return nil, fmt.Errorf("%w: decoupling: fft size must be >= 2: %d", core.ErrNumerical, fftSize)
	}

	if !isPowerOfTwo(fftSize) {
		return newRealTransform(fftSize), nil
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return newRealTransform(fftSize), nil
	}

	return &planTransform{
		n:    fftSize,
		plan: plan,
		in:   make([]complex128, fftSize),
		out:  make([]complex128, fftSize),
	}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

type planTransform struct {
	n    int
	plan *algofft.Plan[complex128]
	in   []complex128
	out  []complex128
}

func (p *planTransform) size() int       { return p.n }
func (p *planTransform) backend() string { return "algo-fft" }

func (p *planTransform) power(dst, v []float64) error {
	for i := range p.in {
		p.in[i] = 0
	}
	for i, x := range v {
		p.in[i] = complex(x, 0)
	}

	if err := p.plan.Forward(p.out, p.in); err != nil {
		return fmt.Errorf("%w: decoupling: forward FFT failed: %v", core.ErrNumerical, err)
	}

	spectrum.PowerInto(dst, p.out[:spectrum.OneSidedBins(p.n)])
	return nil
}

type realTransform struct {
	n     int
	fft   *fourier.FFT
	seq   []float64
	coeff []complex128
}

func newRealTransform(fftSize int) *realTransform {
	return &realTransform{
		n:     fftSize,
		fft:   fourier.NewFFT(fftSize),
		seq:   make([]float64, fftSize),
		coeff: make([]complex128, spectrum.OneSidedBins(fftSize)),
	}
}

func (r *realTransform) size() int       { return r.n }
func (r *realTransform) backend() string { return "gonum" }

func (r *realTransform) power(dst, v []float64) error {
	core.Zero(r.seq)
	copy(r.seq, v)

	r.coeff = r.fft.Coefficients(r.coeff, r.seq)
	spectrum.PowerInto(dst, r.coeff)
	return nil
}
