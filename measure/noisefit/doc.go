// Package noisefit fits a spin-noise spectrum to a dynamical-decoupling
// contrast curve.
//
// The noise spectral density is a Lorentzian line on a linear background,
//
//	S(f) = (A/π)·Γ/((f−F0)² + Γ²) + (K·f + B)·1e-18   [T²/Hz]
//
// and the contrast predicted for inter-pulse spacing τ_i is
//
//	ŷ_i = exp(−γe²·∫ S(f)·|F(f;τ_i)|² df)
//
// where |F|² is the filter spectrum of the XY8 sequence taken from a
// [decoupling.Table].
//
// [Fit] minimizes the RMS residual by nested coordinate descent: a background
// sweep over (K, B), an amplitude–width sweep over (A, Γ), a scan of the line
// centre F0 and a final amplitude–width sweep. Every loop is bounded and
// reports its accepted residuals in a [LoopTrace].
package noisefit
