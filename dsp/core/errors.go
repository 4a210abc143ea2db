package core

import "errors"

// Error kinds shared by every stage of the depth estimation pipeline.
// Stages wrap one of these with fmt.Errorf("%w: ...") so callers can
// classify failures with errors.Is.
var (
	// ErrInvalidInput marks malformed files, out-of-range parameters,
	// non-monotone τ, non-positive counts and non-positive initial guesses.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNumerical marks FFT sizes below the time-domain length and empty
	// frequency bands.
	ErrNumerical = errors.New("numerical")
	// ErrNotConverged marks iteration caps and non-finite residuals.
	ErrNotConverged = errors.New("not converged")
	// ErrModelViolation marks fitted parameters that leave the physical domain.
	ErrModelViolation = errors.New("model violation")
)

var kinds = []error{ErrInvalidInput, ErrNumerical, ErrNotConverged, ErrModelViolation}

// Kind returns the error kind wrapped by err, or nil if err carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}

	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}

	return nil
}

// KindName returns a short stable label for the kind of err: "invalid_input",
// "numerical", "not_converged", "model_violation", "ok" for nil and "other"
// for errors of no known kind.
func KindName(err error) string {
	if err == nil {
		return "ok"
	}

	switch Kind(err) {
	case ErrInvalidInput:
		return "invalid_input"
	case ErrNumerical:
		return "numerical"
	case ErrNotConverged:
		return "not_converged"
	case ErrModelViolation:
		return "model_violation"
	default:
		return "other"
	}
}
