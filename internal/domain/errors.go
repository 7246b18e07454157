package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Only ErrMalformed is meant to reach callers as a hard failure;
// the rest are recovered into typed statuses by the flow engine.
var (
	ErrNotFound      = errors.New("not found")
	ErrTransport     = errors.New("transport failure")
	ErrConflict      = errors.New("category conflict")
	ErrNoSafeMatch   = errors.New("no safe match")
	ErrMalformed     = errors.New("malformed request")
	ErrAssistTimeout = errors.New("ai assist timeout")
)

// AppError carries a stable code next to the wrapped kind.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Malformed builds a MALFORMED_REQUEST error.
func Malformed(format string, args ...any) error {
	return NewAppError("MALFORMED_REQUEST", fmt.Sprintf(format, args...), ErrMalformed)
}

// TransportError wraps a registry or search failure so errors.Is(err, ErrTransport) holds.
func TransportError(op string, err error) error {
	return NewAppError("TRANSPORT_FAILURE", op, errors.Join(ErrTransport, err))
}
