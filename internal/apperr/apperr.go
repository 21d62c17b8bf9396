// Package apperr defines the application error type used across workstate
package apperr

import (
	"errors"
	"fmt"
)

// Error is a user-facing error with an optional cause. Errors created with Fmt
// or Wrap keep a reference to the template they came from so that errors.Is
// matches the package-level sentinel.
type Error struct {
	Cause   error
	parent  *Error
	Message string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error or the sentinel it was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	for cur := e; cur != nil; cur = cur.parent {
		if cur == t {
			return true
		}
	}

	return false
}

// Fmt returns a copy of the error with its message formatted using args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		parent:  e,
	}
}

// Wrap returns a copy of the error that carries err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		parent:  e,
	}
}

// Message extracts the top-level message of err if it is an *Error, or the
// full error string otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return err.Error()
}
