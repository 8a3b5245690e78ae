package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure so callers can decide how to report it
type Kind int

const (
	ErrInternal Kind = iota
	ErrNetwork
	ErrBadResponse
	ErrDecode
	ErrInvalidInput
	ErrNotFound
)

// String returns the lowercase name used in logs and diagnostic messages
func (k Kind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrBadResponse:
		return "bad_response"
	case ErrDecode:
		return "decode"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is an application-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Status  int   // HTTP status for ErrBadResponse, zero otherwise
	Err     error // underlying error
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

// Network reports a transport failure (connection refused, timeout, DNS).
func Network(err error) *Error {
	return &Error{Kind: ErrNetwork, Message: "request failed", Err: err}
}

// BadResponse reports a non-success HTTP status from a collaborator.
func BadResponse(status int, body string) *Error {
	msg := fmt.Sprintf("unexpected status %d", status)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &Error{Kind: ErrBadResponse, Message: msg, Status: status}
}

func Decode(err error) *Error {
	return &Error{Kind: ErrDecode, Message: "malformed response", Err: err}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}
