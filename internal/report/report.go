// Package report renders the outcome of a depth estimation run as text,
// YAML or a PNG overview.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/measure/depth"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
)

// Summary is the serializable result of one run.
type Summary struct {
	RunID   string       `yaml:"run_id"`
	Status  string       `yaml:"status"`
	Error   string       `yaml:"error,omitempty"`
	Samples int          `yaml:"samples"`
	Model   ModelSummary `yaml:"model"`
	Fit     FitSummary   `yaml:"fit"`
	Depth   DepthSummary `yaml:"depth"`
}

// ModelSummary lists the fitted noise model.
type ModelSummary struct {
	A     float64 `yaml:"a"`
	Gamma float64 `yaml:"gamma_hz"`
	F0    float64 `yaml:"f0_hz"`
	K     float64 `yaml:"k"`
	B     float64 `yaml:"b"`
}

// FitSummary describes fit quality.
type FitSummary struct {
	Residual     float64 `yaml:"residual"`
	PercentError float64 `yaml:"percent_error"`
	MaxDeviation float64 `yaml:"max_deviation"`
	MaxAt        int     `yaml:"max_deviation_index"`
	Loops        int     `yaml:"loops"`
	Iterations   int     `yaml:"iterations"`
	NoSignal     bool    `yaml:"no_signal"`
}

// DepthSummary holds the depth estimate in display units. Infinite values
// are kept as strings so that YAML output stays portable.
type DepthSummary struct {
	FieldTesla    float64 `yaml:"field_rms_t"`
	FieldErrTesla float64 `yaml:"field_err_t"`
	DepthNM       string  `yaml:"depth_nm"`
	DepthErrNM    string  `yaml:"depth_err_nm"`
}

// NewSummary collects the parts of a run into a Summary. err is the run's
// terminal error, if any.
func NewSummary(runID string, samples int, rep noisefit.Report, res depth.Result, err error) Summary {
	s := Summary{
		RunID:   runID,
		Status:  core.KindName(err),
		Samples: samples,
		Model: ModelSummary{
			A:     rep.Model.A,
			Gamma: rep.Model.Gamma,
			F0:    rep.Model.F0,
			K:     rep.Model.K,
			B:     rep.Model.B,
		},
		Fit: FitSummary{
			Residual:     rep.Residual,
			PercentError: rep.PercentError,
			MaxDeviation: rep.Mismatch.MaxAbs,
			MaxAt:        rep.Mismatch.MaxPos,
			Loops:        len(rep.Loops),
			NoSignal:     rep.NoSignal,
		},
		Depth: DepthSummary{
			FieldTesla:    res.Field,
			FieldErrTesla: res.FieldErr,
			DepthNM:       nanometres(res.Depth),
			DepthErrNM:    nanometres(res.DepthErr),
		},
	}
	if err != nil {
		s.Error = err.Error()
	}
	for _, loop := range rep.Loops {
		s.Fit.Iterations += loop.Iterations
	}
	return s
}

func nanometres(m float64) string {
	if math.IsInf(m, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", m*1e9)
}

// Encode writes s to w as "text" or "yaml".
func Encode(w io.Writer, s Summary, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
		return encodeText(w, s)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

type textRow struct {
	key   string
	value string
}

func encodeText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rows := []textRow{
		{"run", s.RunID},
		{"status", s.Status},
		{"samples", fmt.Sprintf("%d", s.Samples)},
		{"a", fmt.Sprintf("%.4g T²", s.Model.A)},
		{"gamma", fmt.Sprintf("%.4g Hz", s.Model.Gamma)},
		{"f0", fmt.Sprintf("%.6g Hz", s.Model.F0)},
		{"k, b", fmt.Sprintf("%.4g, %.4g", s.Model.K, s.Model.B)},
		{"residual", fmt.Sprintf("%.4g", s.Fit.Residual)},
		{"error", fmt.Sprintf("%.3f %%", s.Fit.PercentError)},
		{"max |ŷ−y|", fmt.Sprintf("%.4g at sample %d", s.Fit.MaxDeviation, s.Fit.MaxAt)},
		{"loops", fmt.Sprintf("%d (%d iterations)", s.Fit.Loops, s.Fit.Iterations)},
		{"B_rms", fmt.Sprintf("%.4g ± %.2g T", s.Depth.FieldTesla, s.Depth.FieldErrTesla)},
		{"depth", fmt.Sprintf("%s ± %s nm", s.Depth.DepthNM, s.Depth.DepthErrNM)},
	}
	if s.Fit.NoSignal {
		rows = append(rows, textRow{"note", "no contrast variation, fit skipped"})
	}
	if s.Error != "" {
		rows = append(rows, textRow{"detail", s.Error})
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row.key, row.value); err != nil {
			return fmt.Errorf("report: write: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}
