// Package trace reads dynamical-decoupling count traces and converts them
// into normalized contrast curves.
//
// A count trace holds, per inter-pulse spacing τ, the photon count rates of
// the two readout projections (π/2 pulse up and down) and their standard
// deviations. [Normalize] maps the two channels onto a single contrast curve
// y(τ) using the optical contrast of the NV centre.
//
// The on-disk format is plain text with five whitespace-separated numbers
// per line:
//
//	# tau  c_up  c_down  sigma_up  sigma_down
//	5e-08  10210 9780    101       98
//
// A '#' starts a comment that runs to the end of the line. Blank lines are
// ignored and file order is preserved.
package trace
