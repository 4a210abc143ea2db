package noisefit

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
	"github.com/cwbudde/algo-nvdepth/stats/residual"
)

const (
	// DefaultMaxIterations bounds every descent loop.
	DefaultMaxIterations = 64
	// DefaultInitialA and DefaultInitialGamma seed the amplitude–width sweep.
	DefaultInitialA     = 1e-14
	DefaultInitialGamma = 10e3
	// DefaultSlopeRefinement is the number of step halvings applied to the
	// background slope after its lattice sweep.
	DefaultSlopeRefinement = 24

	// InterceptStep is the increment of the background intercept B.
	InterceptStep = 0.001
	// SlopeStep is the decrement of the background slope K. The update
	// K ← (K − 0.1)·1e-8 stalls at a fixed point near −1e-9, so the slope
	// walks a 1e-9 lattice instead and is then refined by step halving.
	SlopeStep = 1e-9
	// WidthStep is the decrement of Γ in Hz.
	WidthStep = 200.0
	// AmplitudeGrowth is the factor applied to A per step.
	AmplitudeGrowth = 1.1
	// CentreSpan and CentrePoints define the F0 scan over (1 ± CentreSpan)·F0⁽⁰⁾.
	CentreSpan   = 0.02
	CentrePoints = 40
	// BackgroundFraction selects the samples used for the background fit:
	// y ≥ BackgroundFraction·max(y). A dip shallower than 10% leaves every
	// sample in the subset, and the background then absorbs the dip.
	BackgroundFraction = 0.9

	// flatRange is the largest contrast variation treated as no signal.
	flatRange = 1e-12
	// tauTolerance is the relative tolerance when matching trace and table τ.
	tauTolerance = 1e-9
)

type config struct {
	a0            float64
	gamma0        float64
	maxIterations int
	slopeRefine   int
	log           zerolog.Logger
}

// Option configures [Fit].
type Option func(*config)

// WithInitial sets the starting amplitude a⁽⁰⁾ and width γ⁽⁰⁾.
func WithInitial(a, gamma float64) Option {
	return func(cfg *config) {
		cfg.a0 = a
		cfg.gamma0 = gamma
	}
}

// WithMaxIterations sets the iteration cap of each loop. Non-positive values
// keep the default.
func WithMaxIterations(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxIterations = n
		}
	}
}

// WithSlopeRefinement sets the number of halvings used to refine the
// background slope; zero keeps the slope on the SlopeStep lattice.
func WithSlopeRefinement(levels int) Option {
	return func(cfg *config) {
		if levels >= 0 {
			cfg.slopeRefine = levels
		}
	}
}

// WithLogger sets the logger receiving per-loop debug events.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// Report is the outcome of a fit.
type Report struct {
	Model NoiseModel
	// Initial holds a⁽⁰⁾, γ⁽⁰⁾ and f0⁽⁰⁾.
	Initial NoiseModel
	// Residual is the RMS of ŷ − y over the whole trace.
	Residual float64
	// PercentError is 100·mean(|ŷ − y|/ŷ).
	PercentError float64
	// Mismatch holds the full residual statistics of Predicted against the
	// trace.
	Mismatch  residual.Stats
	Predicted []float64
	Loops     []LoopTrace
	// NoSignal is set when the trace carried no contrast variation and the
	// fit was skipped.
	NoSignal bool
}

type fitter struct {
	cfg   config
	log   zerolog.Logger
	tr    trace.Normalized
	fw    *forward
	pred  []float64
	bg    []int
	loops []LoopTrace
}

// Fit fits a NoiseModel to the contrast curve tr using the filter spectra
// in tbl, whose rows must belong to the same τ values.
//
// On ErrModelViolation the returned Report still describes the rejected
// fit.
func Fit(tr trace.Normalized, tbl *decoupling.Table, opts ...Option) (Report, error) {
	cfg := config{
		a0:            DefaultInitialA,
		gamma0:        DefaultInitialGamma,
		maxIterations: DefaultMaxIterations,
		slopeRefine:   DefaultSlopeRefinement,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !(cfg.a0 > 0) || math.IsInf(cfg.a0, 0) || !(cfg.gamma0 > 0) || math.IsInf(cfg.gamma0, 0) {
		return Report{}, fmt.Errorf("%w: noisefit: initial amplitude %v and width %v must be > 0",
			core.ErrInvalidInput, cfg.a0, cfg.gamma0)
	}
	if err := checkGrid(tr, tbl); err != nil {
		return Report{}, err
	}

	f := &fitter{
		cfg:  cfg,
		log:  cfg.log,
		tr:   tr,
		fw:   newForward(tbl),
		pred: make([]float64, tr.Len()),
		bg:   residual.Above(tr.Y, BackgroundFraction),
	}
	if len(f.bg) == 0 {
		f.bg = nil
	}

	initial := NoiseModel{
		A:     cfg.a0,
		Gamma: cfg.gamma0,
		F0:    1 / (2 * tr.Tau[floats.MinIdx(tr.Y)]),
	}

	if tr.Range() <= flatRange {
		f.log.Info().Float64("range", tr.Range()).Msg("no contrast variation, fit skipped")
		m := initial
		m.A = 0
		rep := f.report(m, initial)
		rep.NoSignal = true
		return rep, nil
	}

	m, err := f.fitBackground(initial)
	if err != nil {
		return Report{Loops: f.loops}, err
	}

	c, err := f.sweepAmplitudeWidth("amplitude-width", m)
	if err != nil {
		return Report{Loops: f.loops}, err
	}

	c, err = f.scanCentre(c.model, initial.F0)
	if err != nil {
		return Report{Loops: f.loops}, err
	}

	c, err = f.sweepAmplitudeWidth("final", c.model)
	if err != nil {
		return Report{Loops: f.loops}, err
	}

	rep := f.report(c.model, initial)
	f.log.Info().
		Float64("a", rep.Model.A).
		Float64("gamma", rep.Model.Gamma).
		Float64("f0", rep.Model.F0).
		Float64("k", rep.Model.K).
		Float64("b", rep.Model.B).
		Float64("residual", rep.Residual).
		Float64("percent_error", rep.PercentError).
		Int("loops", len(rep.Loops)).
		Msg("fit complete")

	if err := rep.Model.Validate(tbl.Band.Lo, tbl.Band.Hi); err != nil {
		return rep, err
	}
	return rep, nil
}

func checkGrid(tr trace.Normalized, tbl *decoupling.Table) error {
	if tbl == nil {
		return fmt.Errorf("%w: noisefit: nil spectrum table", core.ErrInvalidInput)
	}
	if tr.Len() < 2 || len(tr.Y) != tr.Len() {
		return fmt.Errorf("%w: noisefit: trace needs at least two (tau, y) pairs", core.ErrInvalidInput)
	}
	if tr.Len() != tbl.Len() {
		return fmt.Errorf("%w: noisefit: trace has %d samples, table %d rows", core.ErrInvalidInput, tr.Len(), tbl.Len())
	}
	for i, tau := range tr.Tau {
		if !core.NearlyEqual(tau, tbl.Tau[i], tauTolerance) {
			return fmt.Errorf("%w: noisefit: sample %d: trace tau %v, table tau %v", core.ErrInvalidInput, i, tau, tbl.Tau[i])
		}
	}
	if !core.AllFinite(tr.Y) {
		return fmt.Errorf("%w: noisefit: contrast contains non-finite values", core.ErrInvalidInput)
	}
	return nil
}

// residual returns the RMS mismatch of m over idx, or over the whole trace
// when idx is nil.
func (f *fitter) residual(m NoiseModel, idx []int) float64 {
	f.fw.predict(f.pred, m, idx)
	return residual.RMS(f.pred, f.tr.Y, idx)
}

func (f *fitter) evalFull(m NoiseModel) (candidate, error) {
	return candidate{model: m, residual: f.residual(m, nil)}, nil
}

func (f *fitter) evalBackground(m NoiseModel) (candidate, error) {
	return candidate{model: m, residual: f.residual(m, f.bg)}, nil
}

// fitBackground fixes K and B on the high-contrast samples with the peak
// switched off, then returns start with that background.
func (f *fitter) fitBackground(start NoiseModel) (NoiseModel, error) {
	bg := start
	bg.A, bg.K, bg.B = 0, 0, 0

	best, err := f.descend("background/intercept", bg, stepIntercept, f.bestSlope)
	if err != nil {
		return NoiseModel{}, err
	}

	out := start
	out.K, out.B = best.model.K, best.model.B
	return out, nil
}

// bestSlope sweeps K downward from zero for a fixed B and refines the best
// lattice point.
func (f *fitter) bestSlope(m NoiseModel) (candidate, error) {
	m.K = 0

	c, err := f.descend("background/slope", m, stepSlope, f.evalBackground)
	if err != nil {
		return candidate{}, err
	}

	return f.refineSlope(c)
}

// refineSlope halves the slope step cfg.slopeRefine times, moving K by one
// step in whichever direction improves first.
func (f *fitter) refineSlope(c candidate) (candidate, error) {
	if f.cfg.slopeRefine == 0 {
		return c, nil
	}

	lt := LoopTrace{Name: "background/slope-refine", Residuals: []float64{c.residual}}
	h := SlopeStep / 2
	for range f.cfg.slopeRefine {
		for _, dir := range [...]float64{-1, 1} {
			m := c.model
			m.K += dir * h

			r := f.residual(m, f.bg)
			lt.Iterations++
			if !core.IsFinite(r) {
				lt.Outcome = Diverged
				f.record(lt)
				return candidate{}, fmt.Errorf("%w: noisefit: %s: non-finite residual", core.ErrNotConverged, lt.Name)
			}
			if core.Improves(r, c.residual) {
				c = candidate{model: m, residual: r}
				lt.Residuals = append(lt.Residuals, r)
				break
			}
		}
		h /= 2
	}

	lt.Outcome = Converged
	f.record(lt)
	return c, nil
}

// sweepAmplitudeWidth lowers Γ from γ⁽⁰⁾ and, for every Γ, grows A from a⁽⁰⁾
// until the full-trace residual stops improving.
func (f *fitter) sweepAmplitudeWidth(stage string, start NoiseModel) (candidate, error) {
	start.A, start.Gamma = f.cfg.a0, f.cfg.gamma0

	return f.descend(stage+"/width", start, stepWidth, func(m NoiseModel) (candidate, error) {
		m.A = f.cfg.a0
		return f.descend(stage+"/amplitude", m, stepAmplitude, f.evalFull)
	})
}

// scanCentre evaluates CentrePoints values of F0 across (1 ± CentreSpan)·f0
// and keeps the first minimizer.
func (f *fitter) scanCentre(m NoiseModel, f0 float64) (candidate, error) {
	grid := floats.Span(make([]float64, CentrePoints), (1-CentreSpan)*f0, (1+CentreSpan)*f0)
	lt := LoopTrace{Name: "centre"}

	var best candidate
	for i, x := range grid {
		cand := m
		cand.F0 = x

		r := f.residual(cand, nil)
		lt.Iterations++
		if !core.IsFinite(r) {
			lt.Outcome = Diverged
			f.record(lt)
			return candidate{}, fmt.Errorf("%w: noisefit: centre scan: non-finite residual at %v Hz", core.ErrNotConverged, x)
		}
		if i == 0 || core.Improves(r, best.residual) {
			best = candidate{model: cand, residual: r}
			lt.Residuals = append(lt.Residuals, r)
		}
	}

	lt.Outcome = Converged
	f.record(lt)
	return best, nil
}

func (f *fitter) report(m, initial NoiseModel) Report {
	pred := make([]float64, f.tr.Len())
	f.fw.predict(pred, m, nil)

	st := residual.Calculate(pred, f.tr.Y)
	return Report{
		Model:        m,
		Initial:      initial,
		Residual:     st.RMS,
		PercentError: st.PercentError,
		Mismatch:     st,
		Predicted:    pred,
		Loops:        f.loops,
	}
}

func stepIntercept(m NoiseModel) (NoiseModel, bool) {
	m.B += InterceptStep
	return m, true
}

func stepSlope(m NoiseModel) (NoiseModel, bool) {
	m.K -= SlopeStep
	return m, true
}

func stepWidth(m NoiseModel) (NoiseModel, bool) {
	g := m.Gamma - WidthStep
	if g <= 0 {
		return m, false
	}
	m.Gamma = g
	return m, true
}

func stepAmplitude(m NoiseModel) (NoiseModel, bool) {
	m.A *= AmplitudeGrowth
	return m, true
}
