package engine

import (
	"errors"
	"fmt"
)

// ErrEngine matches every *Error with errors.Is.
var ErrEngine = errors.New("engine error")

// Error is a failure reported by the engine. Op names the boundary call that
// failed and Message carries the engine's own description.
type Error struct {
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrEngine.
func (e *Error) Is(target error) bool {
	return target == ErrEngine
}

// Wrap tags err as an engine failure of op. Errors that are already engine
// errors are returned unchanged; nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return &Error{Op: op, Message: err.Error(), Cause: err}
}

// Errorf builds an engine error without a cause.
func Errorf(op, format string, args ...any) error {
	return &Error{Op: op, Message: fmt.Sprintf(format, args...)}
}
