package validation

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument matches every *InvalidArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports a caller contract violation: a negative
// tolerance, a missing tree or an unknown statement type.
type InvalidArgumentError struct {
	Argument string
	Reason   string
	Err      error
}

func (e *InvalidArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.Argument, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidArgument) match.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

func checkTolerance(tolerance int64) error {
	if tolerance < 0 {
		return &InvalidArgumentError{
			Argument: "tolerance",
			Reason:   fmt.Sprintf("must be non-negative, got %d", tolerance),
		}
	}
	return nil
}
