// Command nvdepth estimates the depth of a shallow NV centre from an XY8-N
// noise spectroscopy measurement.
//
// Usage:
//
//	nvdepth [flags] trace.txt
//
// The trace file holds one sample per line: τ in s, the photon counts of
// both readout projections and their standard deviations. Settings are
// taken from defaults, an optional YAML file (-config), NVDEPTH_*
// environment variables and finally the flags.
//
// Exit status: 0 success, 2 invalid input, 3 numerical failure, 4 fit not
// converged, 5 model violation, 1 anything else.
//
// Examples:
//
//	nvdepth -contrast 0.22 sweep.txt
//	nvdepth -config run.yaml -format yaml -plot fit.png sweep.txt
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/internal/config"
	"github.com/cwbudde/algo-nvdepth/internal/metrics"
	"github.com/cwbudde/algo-nvdepth/internal/report"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
	"github.com/cwbudde/algo-nvdepth/measure/nvdepth"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

const (
	exitOK = iota
	exitOther
	exitInvalidInput
	exitNumerical
	exitNotConverged
	exitModelViolation
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nvdepth", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	contrast := fs.Float64("contrast", 0, "optical contrast C in (0, 1)")
	order := fs.Int("order", 0, "XY8 repetition count N")
	fftSize := fs.Int("fft", 0, "zero-padded FFT length G")
	tauMax := fs.Float64("tau-max", 0, "drop samples with τ above this value in s")
	aInit := fs.Float64("a", 0, "initial Lorentzian amplitude in T²")
	gammaInit := fs.Float64("gamma", 0, "initial Lorentzian half width in Hz")
	maxIter := fs.Int("max-iter", 0, "iteration cap of every fit loop")
	format := fs.String("format", "", "report format: text or yaml")
	plotPath := fs.String("plot", "", "write a PNG of data and fit to this file")
	metricsPath := fs.String("metrics", "", "write Prometheus metrics to this textfile")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: nvdepth [flags] trace.txt\n\n")
		fmt.Fprintf(stderr, "Estimates the NV depth from an XY8-N noise spectroscopy trace.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInvalidInput
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitInvalidInput
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitInvalidInput
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "contrast":
			cfg.Measurement.Contrast = *contrast
		case "order":
			cfg.Sequence.Order = *order
		case "fft":
			cfg.Sequence.FFTSize = *fftSize
		case "tau-max":
			cfg.Measurement.TauMax = *tauMax
		case "a":
			cfg.Fit.AInit = *aInit
		case "gamma":
			cfg.Fit.GammaInit = *gammaInit
		case "max-iter":
			cfg.Fit.MaxIterations = *maxIter
		case "format":
			cfg.Output.Format = *format
		case "plot":
			cfg.Output.Plot = *plotPath
		case "metrics":
			cfg.Output.Metrics = *metricsPath
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitInvalidInput
	}

	log, err := newLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitInvalidInput
	}

	return estimate(fs.Arg(0), cfg, log, stdout)
}

func estimate(path string, cfg *config.Config, log zerolog.Logger, stdout io.Writer) int {
	tr, err := trace.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("cannot read trace")
		return exitCode(err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder()
	if err := rec.Register(reg); err != nil {
		log.Error().Err(err).Msg("cannot register metrics")
		return exitOther
	}

	out, runErr := nvdepth.Run(tr, params(cfg),
		nvdepth.WithLogger(log),
		nvdepth.WithRecorder(rec),
		nvdepth.WithFitOptions(
			noisefit.WithMaxIterations(cfg.Fit.MaxIterations),
			noisefit.WithSlopeRefinement(cfg.Fit.SlopeRefinement),
		),
	)

	summary := report.NewSummary(out.RunID, out.Trace.Len(), out.Report, out.Depth, runErr)
	if err := report.Encode(stdout, summary, cfg.Output.Format); err != nil {
		log.Error().Err(err).Msg("cannot write report")
		return exitOther
	}

	if cfg.Output.Plot != "" && out.Trace.Len() > 0 {
		if err := report.Plot(cfg.Output.Plot, out.Trace, out.Report); err != nil {
			log.Error().Err(err).Str("file", cfg.Output.Plot).Msg("cannot write plot")
		}
	}

	if cfg.Output.Metrics != "" {
		if err := metrics.WriteTextfile(cfg.Output.Metrics, reg); err != nil {
			log.Error().Err(err).Str("file", cfg.Output.Metrics).Msg("cannot write metrics")
		}
	}

	return exitCode(runErr)
}

func params(cfg *config.Config) nvdepth.Params {
	return nvdepth.Params{
		Contrast:  cfg.Measurement.Contrast,
		Order:     cfg.Sequence.Order,
		FFTSize:   cfg.Sequence.FFTSize,
		TimeStep:  cfg.Sequence.TimeStep,
		TauMax:    cfg.Measurement.TauMax,
		AInit:     cfg.Fit.AInit,
		GammaInit: cfg.Fit.GammaInit,
		Sample:    cfg.DepthSample(),
	}
}

func newLogger(lc config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging.level: %w", err)
	}

	var out io.Writer
	switch lc.Format {
	case "json":
		out = w
	case "console", "":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), fmt.Errorf("logging.format: unknown format %q", lc.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	switch core.Kind(err) {
	case core.ErrInvalidInput:
		return exitInvalidInput
	case core.ErrNumerical:
		return exitNumerical
	case core.ErrNotConverged:
		return exitNotConverged
	case core.ErrModelViolation:
		return exitModelViolation
	default:
		return exitOther
	}
}
