package quality

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four outcome classes an operation can fail with.
// Callers branch with errors.Is; the wrapped text carries the detail.
var (
	// ErrValidation marks malformed input: empty required strings, negative
	// quantities, scores outside [0,100]. Fixable by the caller, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidOperation marks an operation attempted from a state that does
	// not permit it. A caller logic error, not retryable as-is.
	ErrInvalidOperation = errors.New("operation not allowed in current state")

	// ErrNotFound is returned by the repository when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned on optimistic-version mismatch or a duplicate
	// business key. The caller should reload and retry.
	ErrConflict = errors.New("version conflict")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidOpf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
