package school

import (
	"errors"
	"fmt"
)

type Kind int

const (
	NotFound Kind = iota + 1
	InvalidReference
	OutOfRange
	Conflict
	InconsistentState
	ArithmeticInconsistency
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidReference:
		return "invalid_reference"
	case OutOfRange:
		return "out_of_range"
	case Conflict:
		return "conflict"
	case InconsistentState:
		return "inconsistent_state"
	case ArithmeticInconsistency:
		return "arithmetic_inconsistency"
	}
	return "unknown"
}

// ErrDuplicateGrade is returned by storage when the (student, course) unique index rejects an insert.
var ErrDuplicateGrade = errors.New("duplicate grade for student and course")

// Error is a business-rule failure. Message is shown to API consumers as is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a school error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
