// Package metrics collects Prometheus metrics for depth estimation runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/measure/depth"
	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
)

const namespace = "nvdepth"

// Recorder owns the collectors of one process. A nil *Recorder discards
// every observation.
type Recorder struct {
	runs         *prometheus.CounterVec
	runSeconds   prometheus.Histogram
	tableSeconds prometheus.Histogram
	loops        *prometheus.CounterVec
	loopIters    prometheus.Histogram
	residual     prometheus.Gauge
	percentError prometheus.Gauge
	depthMeters  prometheus.Gauge
	fieldTesla   prometheus.Gauge
	spectrumBins prometheus.Gauge
}

// NewRecorder creates unregistered collectors.
func NewRecorder() *Recorder {
	return &Recorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Depth estimation runs, partitioned by error kind.",
			},
			[]string{"outcome"},
		),
		runSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_seconds",
				Help:      "Wall time of a full depth estimation run.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		tableSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "spectrum_table_seconds",
				Help:      "Wall time of filter spectrum synthesis for one sweep.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		loops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fit_loops_total",
				Help:      "Coordinate-descent loops run by the fitter, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		loopIters: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_loop_iterations",
				Help:      "Iterations per coordinate-descent loop.",
				Buckets:   prometheus.LinearBuckets(0, 8, 9),
			},
		),
		residual: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_residual",
			Help:      "RMS residual of the last fit.",
		}),
		percentError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_percent_error",
			Help:      "Mean relative error of the last fit in percent.",
		}),
		depthMeters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "depth_meters",
			Help:      "Last estimated NV depth.",
		}),
		fieldTesla: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "field_rms_tesla",
			Help:      "Last estimated RMS field of the spin bath.",
		}),
		spectrumBins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectrum_bins",
			Help:      "Frequency bins per filter spectrum in the last sweep.",
		}),
	}
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.runs, r.runSeconds, r.tableSeconds, r.loops, r.loopIters,
		r.residual, r.percentError, r.depthMeters, r.fieldTesla, r.spectrumBins,
	}
}

// Register attaches the collectors to reg. Collectors that are already
// registered are skipped.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, collector := range r.collectors() {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveTable records the synthesis of a spectrum table.
func (r *Recorder) ObserveTable(d time.Duration, bins int) {
	if r == nil {
		return
	}
	r.tableSeconds.Observe(max(d, 0).Seconds())
	r.spectrumBins.Set(float64(bins))
}

// ObserveFit records the loops and quality of a fit report.
func (r *Recorder) ObserveFit(rep noisefit.Report) {
	if r == nil {
		return
	}
	for _, loop := range rep.Loops {
		r.loops.WithLabelValues(loop.Outcome.String()).Inc()
		r.loopIters.Observe(float64(loop.Iterations))
	}
	r.residual.Set(rep.Residual)
	r.percentError.Set(rep.PercentError)
}

// ObserveDepth records a depth estimate.
func (r *Recorder) ObserveDepth(res depth.Result) {
	if r == nil {
		return
	}
	r.depthMeters.Set(res.Depth)
	r.fieldTesla.Set(res.Field)
}

// ObserveRun records a finished run and its error kind.
func (r *Recorder) ObserveRun(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(core.KindName(err)).Inc()
	r.runSeconds.Observe(max(d, 0).Seconds())
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
