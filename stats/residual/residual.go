// Package residual measures the mismatch between a model prediction and an
// observed curve.
package residual

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the mismatch between a prediction and an observation.
type Stats struct {
	Length       int
	RMS          float64 // sqrt(mean((pred-obs)²))
	MeanAbs      float64
	MaxAbs       float64
	MaxPos       int
	PercentError float64 // 100·mean(|pred-obs|/pred)
}

// Calculate computes all residual statistics over the common length of pred
// and obs.
func Calculate(pred, obs []float64) Stats {
	n := min(len(pred), len(obs))
	if n == 0 {
		return Stats{}
	}

	abs := make([]float64, n)
	floats.SubTo(abs, pred[:n], obs[:n])
	for i, d := range abs {
		abs[i] = math.Abs(d)
	}

	pos := floats.MaxIdx(abs)
	return Stats{
		Length:       n,
		RMS:          RMS(pred, obs, nil),
		MeanAbs:      stat.Mean(abs, nil),
		MaxAbs:       abs[pos],
		MaxPos:       pos,
		PercentError: PercentError(pred, obs),
	}
}

// RMS returns the root-mean-square difference of pred and obs over the
// indices idx, or over their common length when idx is nil. It returns NaN
// for an empty index set and propagates non-finite differences.
func RMS(pred, obs []float64, idx []int) float64 {
	if idx == nil {
		n := min(len(pred), len(obs))
		if n == 0 {
			return math.NaN()
		}
		return floats.Distance(pred[:n], obs[:n], 2) / math.Sqrt(float64(n))
	}

	if len(idx) == 0 {
		return math.NaN()
	}

	var sumSq float64
	for _, i := range idx {
		d := pred[i] - obs[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(idx)))
}

// PercentError returns 100·mean(|pred−obs|/pred), the fractional error
// relative to the prediction.
func PercentError(pred, obs []float64) float64 {
	n := min(len(pred), len(obs))
	if n == 0 {
		return math.NaN()
	}

	rel := make([]float64, n)
	for i := range rel {
		rel[i] = math.Abs(pred[i]-obs[i]) / pred[i]
	}
	return 100 * stat.Mean(rel, nil)
}

// Above returns the indices i with obs[i] ≥ frac·max(obs), in increasing
// order.
func Above(obs []float64, frac float64) []int {
	if len(obs) == 0 {
		return nil
	}

	threshold := frac * floats.Max(obs)
	out := make([]int, 0, len(obs))
	for i, v := range obs {
		if v >= threshold {
			out = append(out, i)
		}
	}
	return out
}
