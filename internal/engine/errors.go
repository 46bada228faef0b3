package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/regkit/internal/planner"
)

var (
	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("validation failed")

	// ErrPartialRun indicates that at least one chain did not complete.
	ErrPartialRun = errors.New("registration run incomplete")

	// ErrNoMatch indicates a glob argument matched no files.
	ErrNoMatch = errors.New("no files match")
)

// RegistrationFailureError reports the job that stopped a chain.
type RegistrationFailureError struct {
	Side     planner.Side
	JobIndex int
	Fixed    planner.ImageRef
	Moving   planner.ImageRef
	Err      error
}

func (e *RegistrationFailureError) Error() string {
	return fmt.Sprintf("%s chain job %d (fixed %s, moving %s): %v",
		e.Side, e.JobIndex, e.Fixed.Path, e.Moving.Path, e.Err)
}

func (e *RegistrationFailureError) Unwrap() error {
	return e.Err
}
