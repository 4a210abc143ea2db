package decoupling

import (
	"fmt"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/spectrum"
)

const (
	// DefaultFFTSize is the zero-padded DFT length; at 1 ns sampling it gives
	// a 500 Hz frequency grid.
	DefaultFFTSize = 2_000_000

	// bandLowFactor and bandHighFactor place the analysis band around the
	// sweep's filter centres 1/(2τ): half of the lowest centre up to 10 %
	// above the highest one.
	bandLowFactor  = 0.5
	bandHighFactor = 1.1
)

// Spectrum is a filter-function power spectrum sampled on an increasing
// frequency grid.
type Spectrum struct {
	Freq  []float64 // Hz
	Power []float64 // |X|²·step/(16·order), ≥ 0
}

// Band is a closed frequency interval in Hz.
type Band struct {
	Lo float64
	Hi float64
}

// Contains reports whether f lies inside the band.
func (b Band) Contains(f float64) bool {
	return f >= b.Lo && f <= b.Hi
}

// BandFor returns the analysis band of a τ sweep ordered by increasing τ:
// [0.5/(2·τ_last), 1.1/(2·τ_first)].
func BandFor(taus []float64) (Band, error) {
	if len(taus) == 0 {
		return Band{}, fmt.Errorf("%w: decoupling: empty tau sweep", core.ErrInvalidInput)
	}

	first, last := taus[0], taus[len(taus)-1]
	if !(first > 0) || !(last >= first) {
		return Band{}, fmt.Errorf("%w: decoupling: tau sweep must be positive and increasing", core.ErrInvalidInput)
	}

	return Band{
		Lo: bandLowFactor / (2 * last),
		Hi: bandHighFactor / (2 * first),
	}, nil
}

type synthConfig struct {
	step    float64
	realFFT bool
}

// SynthOption mutates the synthesizer configuration.
type SynthOption func(*synthConfig)

// WithTimeStep sets the waveform sampling interval in seconds.
func WithTimeStep(step float64) SynthOption {
	return func(cfg *synthConfig) {
		cfg.step = step
	}
}

// WithRealFFT selects the gonum real-input FFT regardless of size.
func WithRealFFT() SynthOption {
	return func(cfg *synthConfig) {
		cfg.realFFT = true
	}
}

// Synthesizer produces filter-function power spectra for one sequence order
// and DFT size. It reuses its FFT plan and buffers across calls and is not
// safe for concurrent use.
type Synthesizer struct {
	order   int
	fftSize int
	step    float64
	fft     powerTransform
	wave    []float64
	power   []float64
}

// NewSynthesizer creates a synthesizer for XY8-order sequences zero-padded
// to fftSize samples.
func NewSynthesizer(order, fftSize int, opts ...SynthOption) (*Synthesizer, error) {
	cfg := synthConfig{step: DefaultTimeStep}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if order < 1 {
		return nil, fmt.Errorf("%w: decoupling: sequence order must be >= 1: %d", core.ErrInvalidInput, order)
	}
	if !(cfg.step > 0) || !core.IsFinite(cfg.step) {
		return nil, fmt.Errorf("%w: decoupling: time step must be > 0: %v", core.ErrInvalidInput, cfg.step)
	}

	var (
		fft powerTransform
		err error
	)
	if cfg.realFFT {
		if fftSize < 2 {
			return nil, fmt.Errorf("%w: decoupling: fft size must be >= 2: %d", core.ErrNumerical, fftSize)
		}
		fft = newRealTransform(fftSize)
	} else {
		fft, err = newPowerTransform(fftSize)
		if err != nil {
			return nil, err
		}
	}

	return &Synthesizer{
		order:   order,
		fftSize: fftSize,
		step:    cfg.step,
		fft:     fft,
		power:   make([]float64, spectrum.OneSidedBins(fftSize)),
	}, nil
}

// Order returns the sequence order N.
func (s *Synthesizer) Order() int { return s.order }

// FFTSize returns the zero-padded DFT length G.
func (s *Synthesizer) FFTSize() int { return s.fftSize }

// TimeStep returns the waveform sampling interval.
func (s *Synthesizer) TimeStep() float64 { return s.step }

// Backend names the FFT implementation in use.
func (s *Synthesizer) Backend() string { return s.fft.backend() }

// Norm returns 16·order·step, the factor that turns a stored spectrum value
// back into the continuous-time |F(f)|² in s².
func (s *Synthesizer) Norm() float64 {
	return float64(SlotsPerOrder*s.order) * s.step
}

// OneSided returns the full one-sided spectrum, DC through Nyquist.
func (s *Synthesizer) OneSided(tau float64) (Spectrum, error) {
	if err := s.transform(tau); err != nil {
		return Spectrum{}, err
	}

	n := len(s.power)
	out := Spectrum{
		Freq:  spectrum.Frequencies(0, n, s.fftSize, s.step),
		Power: make([]float64, n),
	}
	copy(out.Power, s.power)
	spectrum.Scale(out.Power, s.powerScale())
	return out, nil
}

// Spectrum returns the filter spectrum for spacing tau truncated to band.
func (s *Synthesizer) Spectrum(tau float64, band Band) (Spectrum, error) {
	first, last, err := s.binRange(band)
	if err != nil {
		return Spectrum{}, err
	}

	row := make([]float64, last-first)
	if err := s.bandPower(row, tau, first); err != nil {
		return Spectrum{}, err
	}

	return Spectrum{
		Freq:  spectrum.Frequencies(first, last, s.fftSize, s.step),
		Power: row,
	}, nil
}

func (s *Synthesizer) binRange(band Band) (first, last int, err error) {
	first, last, err = spectrum.BinRange(band.Lo, band.Hi, s.fftSize, s.step)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decoupling: %v", core.ErrNumerical, err)
	}
	return first, last, nil
}

// bandPower fills dst with the scaled spectrum of bins [first, first+len(dst)).
func (s *Synthesizer) bandPower(dst []float64, tau float64, first int) error {
	if err := s.transform(tau); err != nil {
		return err
	}

	copy(dst, s.power[first:first+len(dst)])
	spectrum.Scale(dst, s.powerScale())
	return nil
}

func (s *Synthesizer) transform(tau float64) error {
	if err := validate(tau, s.order, s.step); err != nil {
		return err
	}

	if length := Length(tau, s.order, s.step); length > s.fftSize {
		return fmt.Errorf("%w: decoupling: fft size %d is shorter than waveform length %d (tau %v)",
			core.ErrNumerical, s.fftSize, length, tau)
	}

	wave, err := ModulationInto(s.wave, tau, s.order, s.step)
	if err != nil {
		return err
	}
	s.wave = wave

	return s.fft.power(s.power, wave)
}

func (s *Synthesizer) powerScale() float64 {
	return s.step / float64(SlotsPerOrder*s.order)
}
