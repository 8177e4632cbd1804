package leap

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by PreconditionError. Test with errors.Is.
var (
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrDuplicateLayer   = errors.New("layer already exists")
	ErrUnknownSubject   = errors.New("subject is not registered")
	ErrUnknownInstance  = errors.New("unknown animation instance")
	ErrAlreadyScheduled = errors.New("animation instance is already scheduled")
	ErrNegativeFrame    = errors.New("frame index is negative")
	ErrTooShort         = errors.New("instance is shorter than the minimum length")
	ErrInvalidTimewarp  = errors.New("invalid timewarp")
	ErrInvalidRange     = errors.New("frame range is outside the timeline")
)

// ErrInconsistentState is returned when a query names a subject that has no
// scheduled instances on the queried layer. It indicates a caller bug.
var ErrInconsistentState = errors.New("leap: inconsistent state")

// PreconditionError reports an operation rejected before it touched the
// schedule.
type PreconditionError struct {
	Op  string
	Err error
	// Detail names the offending value, e.g. a layer name or instance ID.
	Detail string
}

func (e *PreconditionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("leap: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("leap: %s: %v (%s)", e.Op, e.Err, e.Detail)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func precondition(op string, err error, format string, args ...any) error {
	return &PreconditionError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}
