package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaus(t *testing.T) {
	taus, err := parseTaus([]string{"100", "150.5"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100e-9, 150.5e-9}, taus, 1e-18)

	_, err = parseTaus(nil)
	assert.Error(t, err)
	_, err = parseTaus([]string{"abc"})
	assert.Error(t, err)
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printInfo(&buf, []float64{100e-9, 200e-9}, 2, 1<<14))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "peak [MHz]")

	// τ = 100 ns: n = 100, L = 16·2·100, resonance at 5 MHz.
	fields := strings.Fields(lines[2])
	assert.Equal(t, []string{"100.000", "100", "3200"}, fields[:3])
	assert.Equal(t, "5.0000", fields[4])
	peak, err := strconv.ParseFloat(fields[3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, peak, 0.1)
	assert.Contains(t, lines[2], "1.250 .. 5.500")
}

func TestPrintInfoErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, printInfo(&buf, []float64{100e-9}, 0, 1<<14))
	assert.Error(t, printInfo(&buf, []float64{1e-6}, 8, 1<<10))
}
