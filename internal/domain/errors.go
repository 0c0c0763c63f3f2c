package domain

import "errors"

// Validation failures for corral state updates, in precedence order.
var (
	ErrMissingField   = errors.New("missing corral_id or count")
	ErrEmptyID        = errors.New("corral_id must not be empty")
	ErrNotANumber     = errors.New("count must be a finite number")
	ErrNegativeCount  = errors.New("count must not be negative")
	ErrUnknownCorral  = errors.New("unknown corral")
	ErrCorralNotFound = errors.New("corral not found")
)

var ErrInvalidInput = errors.New("missing or invalid cart corral data")

// Solver failures. The orchestrator absorbs all three by falling back.
var (
	ErrSolverProcessFailed = errors.New("solver process failed")
	ErrSolverOutputInvalid = errors.New("solver output invalid")
	ErrSolverUnavailable   = errors.New("solver unavailable")
)

var ErrInternal = errors.New("internal error")

// IsValidationError reports whether err is a client-caused state update failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrEmptyID) ||
		errors.Is(err, ErrNotANumber) ||
		errors.Is(err, ErrNegativeCount) ||
		errors.Is(err, ErrUnknownCorral)
}
