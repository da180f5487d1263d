package models

import (
	"errors"
	"fmt"
)

// ErrorKind - classifies every failure the server can report. The kind is
// what the delivery layer maps to an HTTP status and what prefixes the
// user-visible error body.
type ErrorKind string

const (
	// KeyError - missing or expired key in a storage lookup.
	KeyError ErrorKind = "KeyError"
	// IndexError - out-of-bounds vector index or missing map entry.
	IndexError ErrorKind = "IndexError"
	// TypeError - value kind does not match the container or operation.
	TypeError ErrorKind = "TypeError"
	// TokenizationError - the query could not be split into tokens.
	TokenizationError ErrorKind = "TokenizationError"
	// ParseError - the token stream is not a valid statement sequence.
	ParseError ErrorKind = "ParseError"
	// AuthenticationError - credentials rejected.
	AuthenticationError ErrorKind = "AuthenticationError"
	// AuthorizationError - credentials accepted but level insufficient.
	AuthorizationError ErrorKind = "AuthorizationError"
	// RequestError - malformed HTTP envelope.
	RequestError ErrorKind = "RequestError"
	// NetworkError - I/O failure reading the transport.
	NetworkError ErrorKind = "NetworkError"
	// WriteError - I/O failure writing the transport.
	WriteError ErrorKind = "WriteError"
	// InternalError - pipeline failure: timeout, closed queue, invariant violation.
	InternalError ErrorKind = "InternalError"
)

// Error - the single typed error crossing subsystem boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error - formats as "<Kind>: <message>", the exact user-visible form.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError - creates an error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf - extracts the kind of an error, defaulting to InternalError for
// anything that did not originate in this taxonomy.
func KindOf(err error) ErrorKind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}

	return InternalError
}

// IsKind - reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func KeyErrorf(format string, args ...any) *Error {
	return NewError(KeyError, format, args...)
}

func IndexErrorf(format string, args ...any) *Error {
	return NewError(IndexError, format, args...)
}

func TypeErrorf(format string, args ...any) *Error {
	return NewError(TypeError, format, args...)
}

func TokenizationErrorf(format string, args ...any) *Error {
	return NewError(TokenizationError, format, args...)
}

func ParseErrorf(format string, args ...any) *Error {
	return NewError(ParseError, format, args...)
}

func AuthenticationErrorf(format string, args ...any) *Error {
	return NewError(AuthenticationError, format, args...)
}

func AuthorizationErrorf(format string, args ...any) *Error {
	return NewError(AuthorizationError, format, args...)
}

func RequestErrorf(format string, args ...any) *Error {
	return NewError(RequestError, format, args...)
}

func NetworkErrorf(format string, args ...any) *Error {
	return NewError(NetworkError, format, args...)
}

func WriteErrorf(format string, args ...any) *Error {
	return NewError(WriteError, format, args...)
}

func InternalErrorf(format string, args ...any) *Error {
	return NewError(InternalError, format, args...)
}
