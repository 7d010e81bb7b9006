package statement

import (
	"errors"
	"fmt"
)

// ErrStructural matches every *StructuralError via errors.Is.
var ErrStructural = errors.New("malformed statement tree")

// ErrUnknownCode is returned when values reference a code the tree does not declare.
var ErrUnknownCode = errors.New("unknown line item code")

// StructuralError reports a malformed tree: a dangling child reference,
// a cycle, or a rule referencing a code the tree lacks.
type StructuralError struct {
	Code   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %q: %s", e.Code, e.Reason)
}

// Is lets errors.Is(err, ErrStructural) match.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func structural(code, format string, args ...any) *StructuralError {
	return &StructuralError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
