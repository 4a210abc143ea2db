package decoupling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-nvdepth/dsp/core"
	"github.com/cwbudde/algo-nvdepth/internal/testutil"
)

func TestBuildTableSharesGrid(t *testing.T) {
	taus := testutil.SteppedGrid(60e-9, 20e-9, 5)

	tbl, err := BuildTable(taus, 4, 1<<16)
	require.NoError(t, err)

	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, 4, tbl.Order)
	assert.Greater(t, tbl.Bins(), 2)
	assert.InDelta(t, 1/(float64(1<<16)*DefaultTimeStep), tbl.Step(), 1e-6)
	assert.InDelta(t, 16*4*DefaultTimeStep, tbl.Norm, 1e-20)

	assert.GreaterOrEqual(t, tbl.Freq[0], tbl.Band.Lo)
	assert.LessOrEqual(t, tbl.Freq[tbl.Bins()-1], tbl.Band.Hi)

	for i := range tbl.Len() {
		row := tbl.Row(i)
		require.Len(t, row.Power, tbl.Bins())
		for k, p := range row.Power {
			require.GreaterOrEqual(t, p, 0.0, "row %d bin %d", i, k)
		}

		peak := row.Freq[floats.MaxIdx(row.Power)]
		assert.InDelta(t, 1/(2*taus[i]), peak, 2*tbl.Step(), "row %d", i)
	}
}

func TestBuildTableMatchesSynthesizer(t *testing.T) {
	taus := []float64{50e-9, 75e-9}

	tbl, err := BuildTable(taus, 2, 1<<13)
	require.NoError(t, err)

	syn, err := NewSynthesizer(2, 1<<13)
	require.NoError(t, err)

	s, err := syn.Spectrum(taus[1], tbl.Band)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, tbl.Power[1], s.Power, 0)
}

func TestBuildTableErrors(t *testing.T) {
	_, err := BuildTable([]float64{100e-9, 100e-9}, 1, 1<<14)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = BuildTable(nil, 1, 1<<14)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = BuildTable([]float64{100e-9, 200e-9}, 8, 1024)
	assert.ErrorIs(t, err, core.ErrNumerical)
}
