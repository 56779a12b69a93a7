// Package errkind classifies the failures a replay run can end with.
//
// Every component wraps its failures in an *Error carrying one of the Kind
// values below, so callers (and tests) can match on the category with
// errors.Is while the message still carries the underlying cause.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is a failure category. Kinds are themselves errors so they can be
// used directly as errors.Is targets.
type Kind string

const (
	InvalidInput          Kind = "invalid input"
	ChainQueryError       Kind = "chain query failed"
	NetworkError          Kind = "network error"
	HTTPStatusError       Kind = "unexpected http status"
	BlockNotFound         Kind = "block not found"
	SubprocessFailure     Kind = "subprocess failed"
	ProjectAlreadyExists  Kind = "project already exists"
	ProjectCreationFailed Kind = "project creation failed"
	LockfileFetchError    Kind = "lockfile fetch failed"
)

func (k Kind) Error() string { return string(k) }

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "fetch block"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// E builds a classified error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Of returns the kind of the outermost classified error in err's chain,
// or "" when err is not classified.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
