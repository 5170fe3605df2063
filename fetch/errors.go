package fetch

import (
	"context"
	"errors"
	"fmt"
)

// ClientError classifies failures surfaced by the fetch pipeline.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// TransportError is a failure of the send primitive (network error,
	// broken connection). Recoverable via ResponseError hooks or retry.
	TransportError ErrorType = "transport"
	// InterceptorError is a hook failure that no error hook in its phase
	// recovered.
	InterceptorError ErrorType = "interceptor"
	// CanceledError is a context cancellation, during a send or a pending
	// backoff wait. Distinct from exhaustion and transport failure.
	CanceledError ErrorType = "canceled"
	// ValidationError is a malformed request rejected before the chain ran.
	ValidationError ErrorType = "validation"
)

// transportError carries the request that was in flight when the send
// primitive failed.
type transportError struct {
	req     *Request
	wrapped error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.req.Method, e.req.URL, e.wrapped)
}

func (e *transportError) Type() ErrorType { return TransportError }

func (e *transportError) Unwrap() error { return e.wrapped }

// Request returns the request whose send failed.
func (e *transportError) Request() *Request { return e.req }

// interceptorError records which hook of which interceptor failed.
type interceptorError struct {
	name    string
	phase   string
	wrapped error
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s phase unrecovered (interceptor: %s): %v", e.phase, e.name, e.wrapped)
}

func (e *interceptorError) Type() ErrorType { return InterceptorError }

func (e *interceptorError) Unwrap() error { return e.wrapped }

type canceledError struct {
	wrapped error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("canceled: %v", e.wrapped)
}

func (e *canceledError) Type() ErrorType { return CanceledError }

func (e *canceledError) Unwrap() error { return e.wrapped }

type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType { return ValidationError }

// NewTransportError wraps a send failure with the request it belongs to.
func NewTransportError(req *Request, wrapped error) ClientError {
	return &transportError{req: req, wrapped: wrapped}
}

// NewInterceptorError wraps an unrecovered hook failure with its origin.
func NewInterceptorError(name, phase string, wrapped error) ClientError {
	return &interceptorError{name: name, phase: phase, wrapped: wrapped}
}

// NewCanceledError wraps a context cancellation.
func NewCanceledError(wrapped error) ClientError {
	return &canceledError{wrapped: wrapped}
}

// NewValidationError creates a request validation error.
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsCanceled reports whether the error represents a cancellation, either
// the typed pipeline error or a raw context error.
func IsCanceled(err error) bool {
	return IsErrorType(err, CanceledError) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// RequestFromError extracts the in-flight request from a transport error,
// if the error carries one.
func RequestFromError(err error) (*Request, bool) {
	var te *transportError
	if errors.As(err, &te) {
		return te.req, true
	}
	return nil, false
}
