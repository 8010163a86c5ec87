// Package apperr classifies request-terminating failures so transport
// layers can map them to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure classification.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthenticated: missing or invalid caller identity.
	KindUnauthenticated
	// KindPermissionDenied: caller lacks role or ownership.
	KindPermissionDenied
	// KindInvalidArgument: malformed request body or arguments.
	KindInvalidArgument
	// KindUnavailable: document store or model gateway unreachable.
	KindUnavailable
	// KindNotFound: referenced document does not exist.
	KindNotFound
)

// Error carries a classification alongside a user-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a user-safe message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies an underlying error. The wrapped error is for logs;
// only Msg is shown to callers.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the classification, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-safe message, or a generic fallback.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }
func IsInvalidArgument(err error) bool  { return KindOf(err) == KindInvalidArgument }
func IsUnavailable(err error) bool      { return KindOf(err) == KindUnavailable }
