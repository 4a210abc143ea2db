// Package core holds the small shared vocabulary of the estimation pipeline:
// error kinds, tolerance-aware comparisons and buffer reuse helpers.
package core
