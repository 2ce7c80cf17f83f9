// Package apperr defines the error taxonomy shared by all Pustak services.
//
// Every service operation either returns a value or fails with exactly one
// Kind. Controllers translate the kind into an HTTP status via Status();
// anything that is not an *Error is treated as an unexpected upstream
// failure and surfaced as a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindValidation         Kind = iota + 1 // missing or malformed input
	KindInvalidCredentials                 // login failure, intentionally non-specific
	KindAuthRequired                       // missing or invalid session credential
	KindForbidden                          // authenticated but not authorised
	KindNotFound                           // resource does not exist
	KindConflict                           // duplicate username/email
	KindInvalidTransition                  // illegal state-machine move
	KindInsufficientStock                  // not enough units to sell
	KindPaymentIncomplete                  // provider did not report success
	KindInternal                           // unexpected store/provider error
)

// Error carries a kind and a human-readable message.
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

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The wrapped cause is logged, never
// shown to the client.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status maps err to the HTTP status code the API contract promises:
// 400 for bad input / illegal transitions, 401/403/404 for access errors,
// 500 for everything unexpected.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindInvalidCredentials, KindConflict,
		KindInvalidTransition, KindInsufficientStock, KindPaymentIncomplete:
		return http.StatusBadRequest
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. Unexpected errors get a
// generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal Server Error"
}
