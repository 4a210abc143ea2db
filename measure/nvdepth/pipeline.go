// Package nvdepth runs the complete depth estimation: normalization of a
// photon-count trace, spectrum table synthesis, noise spectrum fit and
// conversion of the fitted noise power into an NV depth.
package nvdepth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/internal/metrics"
	"github.com/cwbudde/algo-nvdepth/measure/depth"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

// Params are the physical and numerical inputs of a run.
type Params struct {
	// Contrast is the optical contrast C in (0, 1).
	Contrast float64
	// Order is the XY8 repetition count N.
	Order int
	// FFTSize is the zero-padded transform length G.
	FFTSize int
	// TimeStep is the sampling step of the filter function in s.
	TimeStep float64
	// TauMax drops samples with larger τ.
	TauMax float64
	// AInit and GammaInit seed the amplitude–width sweep.
	AInit     float64
	GammaInit float64
	Sample    depth.Sample
}

// DefaultParams returns an XY8-8 run on a proton bath with contrast c.
func DefaultParams(c float64) Params {
	return Params{
		Contrast:  c,
		Order:     8,
		FFTSize:   decoupling.DefaultFFTSize,
		TimeStep:  decoupling.DefaultTimeStep,
		TauMax:    trace.DefaultTauMax,
		AInit:     noisefit.DefaultInitialA,
		GammaInit: noisefit.DefaultInitialGamma,
		Sample:    depth.Protons(),
	}
}

type config struct {
	log     zerolog.Logger
	rec     *metrics.Recorder
	fitOpts []noisefit.Option
	runID   string
}

// Option configures [Run] and [EstimateDepth].
type Option func(*config)

// WithLogger sets the logger. Every event carries the run ID.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// WithRecorder records run metrics into rec.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(cfg *config) {
		cfg.rec = rec
	}
}

// WithFitOptions appends options for the spectrum fit. They are applied
// after the seed taken from Params.
func WithFitOptions(opts ...noisefit.Option) Option {
	return func(cfg *config) {
		cfg.fitOpts = append(cfg.fitOpts, opts...)
	}
}

// WithRunID replaces the generated run ID.
func WithRunID(id string) Option {
	return func(cfg *config) {
		cfg.runID = id
	}
}

// Outcome holds every intermediate of a run.
type Outcome struct {
	RunID  string
	Trace  trace.Normalized
	Table  *decoupling.Table
	Report noisefit.Report
	Depth  depth.Result
}

// EstimateDepth is [Run] without the intermediates.
func EstimateDepth(t trace.CountTrace, p Params, opts ...Option) (noisefit.Report, depth.Result, error) {
	out, err := Run(t, p, opts...)
	return out.Report, out.Depth, err
}

// Run estimates the NV depth from t.
//
// The error wraps one of the core error kinds. When it wraps
// core.ErrModelViolation, Outcome still holds the rejected fit and, if the
// fit itself was accepted, the depth result with its infinite depth.
func Run(t trace.CountTrace, p Params, opts ...Option) (Outcome, error) {
	cfg := config{log: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	log := cfg.log.With().Str("run", cfg.runID).Logger()

	start := time.Now()
	out, err := run(t, p, &cfg, log)
	cfg.rec.ObserveRun(time.Since(start), err)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.Str("outcome", core.KindName(err)).Dur("elapsed", time.Since(start)).Msg("run finished")

	return out, err
}

func run(t trace.CountTrace, p Params, cfg *config, log zerolog.Logger) (Outcome, error) {
	out := Outcome{RunID: cfg.runID}

	if err := p.Sample.Validate(); err != nil {
		return out, err
	}

	norm, err := trace.Normalize(t, p.Contrast, trace.WithTauMax(p.TauMax))
	if err != nil {
		return out, err
	}
	out.Trace = norm
	log.Debug().
		Int("samples", len(t)).
		Int("retained", norm.Len()).
		Float64("range", norm.Range()).
		Msg("trace normalized")

	tableStart := time.Now()
	tbl, err := decoupling.BuildTable(norm.Tau, p.Order, p.FFTSize, decoupling.WithTimeStep(p.TimeStep))
	if err != nil {
		return out, err
	}
	out.Table = tbl
	cfg.rec.ObserveTable(time.Since(tableStart), tbl.Bins())
	log.Debug().
		Int("rows", tbl.Len()).
		Int("bins", tbl.Bins()).
		Float64("band_lo", tbl.Band.Lo).
		Float64("band_hi", tbl.Band.Hi).
		Dur("elapsed", time.Since(tableStart)).
		Msg("spectrum table built")

	fitOpts := append([]noisefit.Option{
		noisefit.WithInitial(p.AInit, p.GammaInit),
		noisefit.WithLogger(log),
	}, cfg.fitOpts...)

	rep, err := noisefit.Fit(norm, tbl, fitOpts...)
	out.Report = rep
	if err != nil {
		if errors.Is(err, core.ErrModelViolation) {
			cfg.rec.ObserveFit(rep)
		}
		return out, err
	}
	cfg.rec.ObserveFit(rep)

	res, err := depth.Estimate(rep, tbl.Freq, p.Sample)
	out.Depth = res
	if err != nil && !errors.Is(err, core.ErrModelViolation) {
		return out, err
	}
	cfg.rec.ObserveDepth(res)
	if err != nil {
		return out, fmt.Errorf("nvdepth: %w", err)
	}

	log.Info().
		Float64("field", res.Field).
		Float64("depth_nm", res.Depth*1e9).
		Float64("depth_err_nm", res.DepthErr*1e9).
		Msg("depth estimated")

	return out, nil
}
