// Package decoupling synthesizes the filter functions of XY8-k dynamical
// decoupling sequences.
//
// An XY8-k sequence with inter-pulse spacing τ toggles the sign of the NV
// phase accumulation at every π-pulse. The resulting ±1 modulation v(t) acts
// as a narrow band-pass filter centred at 1/(2τ); its power spectrum |F(f;τ)|²
// weights the magnetic noise spectrum seen by the sensor.
//
// # Usage
//
//	band, _ := decoupling.BandFor(taus)
//	syn, _ := decoupling.NewSynthesizer(8, decoupling.DefaultFFTSize)
//	spec, _ := syn.Spectrum(200e-9, band)
//
// For a whole τ sweep, [BuildTable] synthesizes every row once on a shared
// frequency grid.
package decoupling
