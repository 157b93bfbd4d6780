package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the tool surface. The dispatcher is the
// single place where kinds are translated to protocol errors.
type Kind string

const (
	KindParseError        Kind = "parse_error"
	KindNotFound          Kind = "not_found"
	KindInvalidArgument   Kind = "invalid_argument"
	KindNoMatchingProfile Kind = "no_matching_profile"
	KindTimeout           Kind = "timeout"
	KindInternal          Kind = "internal"
)

// Error is a failure tagged with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a tagged error from a format string.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error without losing the chain.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain. Untagged errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
