// Package spectrum provides the spectrum-domain helpers of the estimator.
//
// The package intentionally does not implement FFT itself. It converts complex
// bins produced by an FFT backend into one-sided power, maps frequency bands
// onto bin ranges and integrates sampled spectra with the trapezoidal rule.
package spectrum
