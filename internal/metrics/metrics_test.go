package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/measure/depth"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder()

	if err := r.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}

func TestObserveRunByKind(t *testing.T) {
	r := NewRecorder()

	r.ObserveRun(time.Second, nil)
	r.ObserveRun(2*time.Second, nil)
	r.ObserveRun(time.Second, errors.Join(core.ErrModelViolation))
	r.ObserveRun(-time.Second, errors.New("disk full"))

	if got := promtest.ToFloat64(r.runs.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok runs = %v, want 2", got)
	}
	if got := promtest.ToFloat64(r.runs.WithLabelValues("model_violation")); got != 1 {
		t.Fatalf("model_violation runs = %v, want 1", got)
	}
	if got := promtest.ToFloat64(r.runs.WithLabelValues("other")); got != 1 {
		t.Fatalf("other runs = %v, want 1", got)
	}
}

func TestObserveFitAndDepth(t *testing.T) {
	r := NewRecorder()

	r.ObserveFit(noisefit.Report{
		Residual:     0.002,
		PercentError: 1.5,
		Loops: []noisefit.LoopTrace{
			{Name: "a", Outcome: noisefit.Converged, Iterations: 3},
			{Name: "b", Outcome: noisefit.Converged, Iterations: 5},
			{Name: "c", Outcome: noisefit.Capped, Iterations: 64},
		},
	})
	r.ObserveDepth(depth.Result{Field: 1.2e-6, Depth: 3e-9})
	r.ObserveTable(250*time.Millisecond, 20001)

	if got := promtest.ToFloat64(r.loops.WithLabelValues("converged")); got != 2 {
		t.Fatalf("converged loops = %v, want 2", got)
	}
	if got := promtest.ToFloat64(r.loops.WithLabelValues("capped")); got != 1 {
		t.Fatalf("capped loops = %v, want 1", got)
	}
	if got := promtest.ToFloat64(r.percentError); got != 1.5 {
		t.Fatalf("percent error = %v", got)
	}
	if got := promtest.ToFloat64(r.depthMeters); got != 3e-9 {
		t.Fatalf("depth = %v", got)
	}
	if got := promtest.ToFloat64(r.spectrumBins); got != 20001 {
		t.Fatalf("bins = %v", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveRun(time.Second, nil)
	r.ObserveFit(noisefit.Report{})
	r.ObserveDepth(depth.Result{})
	r.ObserveTable(time.Second, 1)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder()
	if err := r.Register(reg); err != nil {
		t.Fatal(err)
	}
	r.ObserveRun(time.Second, nil)
	r.ObserveDepth(depth.Result{Field: 1.2e-6, Depth: 3e-9})

	path := filepath.Join(t.TempDir(), "nvdepth.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`nvdepth_runs_total{outcome="ok"} 1`, "nvdepth_depth_meters 3e-09"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("textfile missing %q:\n%s", want, data)
		}
	}
}
