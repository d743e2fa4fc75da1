// Package toolerr defines the single tagged error type returned by every tool operation.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of a tool failure.
type Kind string

const (
	KindSnippetInvalid       Kind = "snippet_invalid"
	KindElementNotFound      Kind = "element_not_found"
	KindSessionNotActive     Kind = "session_not_active"
	KindSessionAlreadyActive Kind = "session_already_active"
	KindConversionFailure    Kind = "conversion_failure"
	KindInvalidParams        Kind = "invalid_params"
	KindInternal             Kind = "internal"

	// KindCaptchaDetected labels a suspended search result. Operations never
	// return it as an error.
	KindCaptchaDetected Kind = "captcha_detected"
)

// Error is a tool failure carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around a cause. The cause text is appended to the message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors not produced by this package are internal.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// Is reports whether err is a tool error of the given kind.
func Is(err error, kind Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// Normalize converts any error into an *Error, keeping existing kinds.
func Normalize(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return Wrap(KindInternal, message, err)
}
