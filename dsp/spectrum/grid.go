package spectrum

import (
	"fmt"
	"math"
)

// BinFrequency returns the frequency in Hz of bin k of an fftSize-point DFT
// sampled every step seconds.
func BinFrequency(k, fftSize int, step float64) float64 {
	return float64(k) / (float64(fftSize) * step)
}

// OneSidedBins returns the number of non-negative-frequency bins (DC through
// Nyquist) of an fftSize-point DFT.
func OneSidedBins(fftSize int) int {
	return fftSize/2 + 1
}

// BinRange maps the closed frequency band [lo, hi] onto the half-open bin
// range [first, last) of the one-sided spectrum of an fftSize-point DFT.
// It returns an error when no bin falls inside the band.
func BinRange(lo, hi float64, fftSize int, step float64) (first, last int, err error) {
	if fftSize <= 0 || step <= 0 {
		return 0, 0, fmt.Errorf("spectrum: invalid fft size %d or step %v", fftSize, step)
	}
	if !(lo <= hi) {
		return 0, 0, fmt.Errorf("spectrum: empty band [%v, %v]", lo, hi)
	}

	// binTolerance absorbs representation error in lo·G·step so that band
	// edges landing exactly on a bin include it.
	const binTolerance = 1e-9

	scale := float64(fftSize) * step
	maxBin := OneSidedBins(fftSize) - 1

	first = int(math.Ceil(lo*scale - binTolerance))
	if first < 0 {
		first = 0
	}

	lastBin := int(math.Floor(hi*scale + binTolerance))
	if lastBin > maxBin {
		lastBin = maxBin
	}

	if lastBin < first {
		return 0, 0, fmt.Errorf("spectrum: no bins in band [%v, %v] Hz", lo, hi)
	}

	return first, lastBin + 1, nil
}

// Frequencies returns the frequencies of bins [first, last).
func Frequencies(first, last, fftSize int, step float64) []float64 {
	if last <= first {
		return nil
	}

	out := make([]float64, last-first)
	for i := range out {
		out[i] = BinFrequency(first+i, fftSize, step)
	}
	return out
}
