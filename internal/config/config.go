// Package config loads run configuration for the nvdepth tools from
// defaults, an optional YAML file and NVDEPTH_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/measure/depth"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

// EnvPrefix prefixes every environment override, e.g. NVDEPTH_SEQUENCE_ORDER.
const EnvPrefix = "NVDEPTH"

// Config is the complete run configuration.
type Config struct {
	Measurement MeasurementConfig `mapstructure:"measurement"`
	Sequence    SequenceConfig    `mapstructure:"sequence"`
	Fit         FitConfig         `mapstructure:"fit"`
	Sample      SampleConfig      `mapstructure:"sample"`
	Output      OutputConfig      `mapstructure:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// MeasurementConfig describes the optical readout.
type MeasurementConfig struct {
	Contrast float64 `mapstructure:"contrast"`
	TauMax   float64 `mapstructure:"tau_max"`
}

// SequenceConfig describes the XY8 sequence and its spectrum synthesis.
type SequenceConfig struct {
	Order    int     `mapstructure:"order"`
	FFTSize  int     `mapstructure:"fft_size"`
	TimeStep float64 `mapstructure:"time_step"`
}

// FitConfig seeds and bounds the spectrum fit.
type FitConfig struct {
	AInit           float64 `mapstructure:"a_init"`
	GammaInit       float64 `mapstructure:"gamma_init"`
	MaxIterations   int     `mapstructure:"max_iterations"`
	SlopeRefinement int     `mapstructure:"slope_refinement"`
}

// SampleConfig describes the nuclear-spin bath.
type SampleConfig struct {
	Density  float64 `mapstructure:"density"`
	Moment   float64 `mapstructure:"moment"`
	Geometry float64 `mapstructure:"geometry"`
}

// OutputConfig selects the report artefacts.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Plot    string `mapstructure:"plot"`
	Metrics string `mapstructure:"metrics"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path, if non-empty, and the environment.
// Environment variables override the file, which overrides the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("measurement.contrast", 0.2)
	v.SetDefault("measurement.tau_max", trace.DefaultTauMax)

	v.SetDefault("sequence.order", 8)
	v.SetDefault("sequence.fft_size", decoupling.DefaultFFTSize)
	v.SetDefault("sequence.time_step", decoupling.DefaultTimeStep)

	v.SetDefault("fit.a_init", noisefit.DefaultInitialA)
	v.SetDefault("fit.gamma_init", noisefit.DefaultInitialGamma)
	v.SetDefault("fit.max_iterations", noisefit.DefaultMaxIterations)
	v.SetDefault("fit.slope_refinement", noisefit.DefaultSlopeRefinement)

	protons := depth.Protons()
	v.SetDefault("sample.density", protons.Density)
	v.SetDefault("sample.moment", protons.Moment)
	v.SetDefault("sample.geometry", protons.Geometry)

	v.SetDefault("output.format", "text")
	v.SetDefault("output.plot", "")
	v.SetDefault("output.metrics", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// DepthSample returns the configured bath.
func (c *Config) DepthSample() depth.Sample {
	return depth.Sample{
		Density:  c.Sample.Density,
		Moment:   c.Sample.Moment,
		Geometry: c.Sample.Geometry,
	}
}

// Validate checks value ranges. Physical constraints on the measurement are
// enforced again by the pipeline itself.
func (c *Config) Validate() error {
	if !(c.Measurement.Contrast > 0 && c.Measurement.Contrast < 1) {
		return fmt.Errorf("measurement.contrast must be in (0, 1)")
	}
	if c.Measurement.TauMax <= 0 {
		return fmt.Errorf("measurement.tau_max must be positive")
	}

	if c.Sequence.Order < 1 {
		return fmt.Errorf("sequence.order must be at least 1")
	}
	if c.Sequence.FFTSize < 2 {
		return fmt.Errorf("sequence.fft_size must be at least 2")
	}
	if c.Sequence.TimeStep <= 0 {
		return fmt.Errorf("sequence.time_step must be positive")
	}

	if c.Fit.AInit <= 0 || c.Fit.GammaInit <= 0 {
		return fmt.Errorf("fit.a_init and fit.gamma_init must be positive")
	}
	if c.Fit.MaxIterations < 1 {
		return fmt.Errorf("fit.max_iterations must be at least 1")
	}
	if c.Fit.SlopeRefinement < 0 {
		return fmt.Errorf("fit.slope_refinement must not be negative")
	}

	if err := c.DepthSample().Validate(); err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	validFormats := map[string]bool{"text": true, "yaml": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: text, yaml")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	return nil
}
