package nvdepth

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/internal/metrics"
	"github.com/cwbudde/algo-nvdepth/internal/testutil"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

const (
	contrast = 0.2
	// counts is (c_up + c_down)/2 for every sample, so the baseline is
	// independent of which samples a trace holds.
	counts = 5e4
)

// countsFor inverts the normalization for a contrast curve y. The offsets
// are rounded to multiples of 2⁻²⁰ so that c_up + c_down is exact.
func countsFor(taus, y []float64) trace.CountTrace {
	span := counts / (1 - contrast/2) * contrast
	t := make(trace.CountTrace, len(taus))
	for i, tau := range taus {
		d := math.Round(y[i]*span/2*(1<<20)) / (1 << 20)
		t[i] = trace.Sample{
			Tau:       tau,
			Up:        counts - d,
			Down:      counts + d,
			SigmaUp:   math.Sqrt(counts - d),
			SigmaDown: math.Sqrt(counts + d),
		}
	}
	return t
}

// flatTrace has c_up = c_down = 10⁴ at τ = 50, 100, ..., 250 ns.
func flatTrace() trace.CountTrace {
	var t trace.CountTrace
	for _, tau := range testutil.SteppedGrid(50e-9, 50e-9, 5) {
		t = append(t, trace.Sample{Tau: tau, Up: 1e4, Down: 1e4, SigmaUp: 100, SigmaDown: 100})
	}
	return t
}

func params(fftSize int) Params {
	p := DefaultParams(contrast)
	p.FFTSize = fftSize
	return p
}

// lorentzianTrace is the contrast curve of a resonance near 2.5 MHz seen
// through an XY8-8 sweep from 50 ns to 252 ns.
func lorentzianTrace(t testing.TB) (trace.CountTrace, Params) {
	t.Helper()

	taus := testutil.SteppedGrid(50e-9, (200.1e-9-50e-9)/23, 32)
	tbl, err := decoupling.BuildTable(taus, 8, 1<<16)
	require.NoError(t, err)

	f0 := 1 / (2 * taus[23])
	centre := floats.Span(make([]float64, noisefit.CentrePoints),
		(1-noisefit.CentreSpan)*f0, (1+noisefit.CentreSpan)*f0)[20]
	truth := noisefit.NoiseModel{A: 9.4e-14, Gamma: 3e4, F0: centre}

	p := params(1 << 16)
	p.AInit = truth.A / math.Pow(noisefit.AmplitudeGrowth, 8)
	p.GammaInit = truth.Gamma + 1000

	return countsFor(taus, noisefit.Predict(tbl, truth)), p
}

func TestZeroSignalIsModelViolation(t *testing.T) {
	rep, res, err := EstimateDepth(flatTrace(), params(1<<15))

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrModelViolation), "got %v", err)
	assert.True(t, rep.NoSignal)
	assert.Equal(t, 0.0, rep.Model.A)
	assert.Equal(t, 0.0, res.Field)
	assert.True(t, math.IsInf(res.Depth, 1))
}

func TestRunLorentzian(t *testing.T) {
	if testing.Short() {
		t.Skip("full fit")
	}

	ct, p := lorentzianTrace(t)
	out, err := Run(ct, p)
	require.NoError(t, err)

	assert.Equal(t, len(ct), out.Trace.Len())
	assert.Equal(t, out.Trace.Len(), out.Table.Len())
	assert.NotEmpty(t, out.RunID)

	direct, err := noisefit.Fit(out.Trace, out.Table, noisefit.WithInitial(p.AInit, p.GammaInit))
	require.NoError(t, err)
	if diff := cmp.Diff(direct, out.Report); diff != "" {
		t.Fatalf("pipeline fit differs from direct fit (-direct +pipeline):\n%s", diff)
	}

	assert.Greater(t, out.Depth.Field, 0.0)
	assert.False(t, math.IsInf(out.Depth.Depth, 0))
	testutil.RequireRelative(t, "inverse", p.Sample.Field(out.Depth.Depth), out.Depth.Field, 1e-9)
}

func TestRunTruncatesLongTau(t *testing.T) {
	if testing.Short() {
		t.Skip("full fit")
	}

	ct, p := lorentzianTrace(t)
	long := append(trace.CountTrace{}, ct...)
	long = append(long, countsFor([]float64{280e-9, 300e-9}, []float64{0.4, 0.5})...)

	short, err := Run(ct, p, WithRunID("a"))
	require.NoError(t, err)
	full, err := Run(long, p, WithRunID("a"))
	require.NoError(t, err)

	if diff := cmp.Diff(short, full); diff != "" {
		t.Fatalf("samples beyond τ_max changed the run (-short +full):\n%s", diff)
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	a, _ := Run(flatTrace(), params(1<<15))
	b, _ := Run(flatTrace(), params(1<<15))

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)

	fixed, _ := Run(flatTrace(), params(1<<15), WithRunID("fixed"))
	assert.Equal(t, "fixed", fixed.RunID)
}

func TestRunLogsWithRunID(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, _ = Run(flatTrace(), params(1<<15), WithLogger(log), WithRunID("r-1"))

	out := buf.String()
	for _, want := range []string{`"run":"r-1"`, "trace normalized", "spectrum table built", "run finished", `"outcome":"model_violation"`} {
		assert.True(t, strings.Contains(out, want), "log missing %q:\n%s", want, out)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder()
	require.NoError(t, rec.Register(reg))

	_, _ = Run(flatTrace(), params(1<<15), WithRecorder(rec))
	_, _ = Run(flatTrace(), Params{Contrast: 2}, WithRecorder(rec))

	families, err := reg.Gather()
	require.NoError(t, err)

	runs := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "nvdepth_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" {
					runs[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"model_violation": 1, "invalid_input": 1}, runs)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		ct   trace.CountTrace
		p    func() Params
		kind error
	}{
		{"contrast", flatTrace(), func() Params { p := params(1 << 15); p.Contrast = 1.5; return p }, core.ErrInvalidInput},
		{"sample", flatTrace(), func() Params { p := params(1 << 15); p.Sample.Density = 0; return p }, core.ErrInvalidInput},
		{"order", flatTrace(), func() Params { p := params(1 << 15); p.Order = 0; return p }, core.ErrInvalidInput},
		{"fft too small", flatTrace(), func() Params { return params(1 << 10) }, core.ErrNumerical},
		{"seed", countsFor([]float64{50e-9, 60e-9, 70e-9}, []float64{0.1, -0.3, 0.2}),
			func() Params { p := params(1 << 14); p.AInit = 0; return p }, core.ErrInvalidInput},
		{"empty", nil, func() Params { return params(1 << 15) }, core.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := EstimateDepth(tc.ct, tc.p())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}
