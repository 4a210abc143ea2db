package noisefit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-nvdepth/dsp/decoupling"
	"github.com/cwbudde/algo-nvdepth/internal/testutil"
)

func smallTable(t testing.TB) *decoupling.Table {
	t.Helper()

	tbl, err := decoupling.BuildTable(testutil.SteppedGrid(60e-9, 20e-9, 8), 4, 1<<15)
	require.NoError(t, err)
	return tbl
}

func TestPredictWithinUnitInterval(t *testing.T) {
	tbl := smallTable(t)

	models := []NoiseModel{
		{A: 1e-15, Gamma: 1e3, F0: 4e6},
		{A: 1e-13, Gamma: 5e4, F0: 5e6},
		{A: 5e-14, Gamma: 2e5, F0: 3e6},
		{A: 1e-13, Gamma: 5e3, F0: 4e6, K: 1e-9, B: 0.05},
		{A: 1e-14, Gamma: 5e3, F0: 8e6, B: 1},
	}

	for _, m := range models {
		y := Predict(tbl, m)
		require.Len(t, y, tbl.Len())
		for i, v := range y {
			assert.Greater(t, v, 0.0, "model %+v row %d", m, i)
			assert.LessOrEqual(t, v, 1.0, "model %+v row %d", m, i)
		}
	}
}

func TestPredictZeroNoiseIsUnity(t *testing.T) {
	tbl := smallTable(t)

	y := Predict(tbl, NoiseModel{Gamma: 1e3, F0: 4e6})
	testutil.RequireSliceNearlyEqual(t, y, testutil.Constant(1, tbl.Len()), 0)
}

func TestPredictDecreasesWithAmplitude(t *testing.T) {
	tbl := smallTable(t)

	weak := Predict(tbl, NoiseModel{A: 1e-14, Gamma: 2e4, F0: 5e6})
	strong := Predict(tbl, NoiseModel{A: 2e-14, Gamma: 2e4, F0: 5e6})

	for i := range weak {
		// exp(−2χ) = exp(−χ)²
		assert.InDelta(t, weak[i]*weak[i], strong[i], 1e-12, "row %d", i)
	}
}

func TestPredictDipAtResonantTau(t *testing.T) {
	tbl := smallTable(t)

	// 1/(2·100 ns) = 5 MHz, row 2.
	y := Predict(tbl, NoiseModel{A: 5e-14, Gamma: 2e4, F0: 5e6})

	minIdx := 0
	for i := range y {
		if y[i] < y[minIdx] {
			minIdx = i
		}
	}
	assert.Equal(t, 2, minIdx)
	assert.Less(t, y[2], 0.99)
}

func TestCoupling(t *testing.T) {
	tbl := smallTable(t)

	want := math.Pow(2*math.Pi*28.024951e9, 2) * 16 * 4 * 1e-9
	testutil.RequireRelative(t, "coupling", Coupling(tbl), want, 1e-12)
}
