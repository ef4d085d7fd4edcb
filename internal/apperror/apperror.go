// Package apperror defines the error kinds surfaced by services and how each one maps
// to an HTTP status.
package apperror

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorType classifies an AppError.
type ErrorType int

const (
	// InternalError covers store connectivity failures and anything unexpected.
	InternalError ErrorType = iota
	// ValidationError is a malformed or incomplete request.
	ValidationError
	// DomainError is a request the business rules refused (e.g. a duplicate username).
	DomainError
	// NotFoundError is an unknown user or task.
	NotFoundError
	// UnauthorizedError is a bad credential or a missing/invalid token.
	UnauthorizedError
)

// AppError carries a kind, the human-readable reasons, and the underlying error if any.
type AppError struct {
	Type     ErrorType
	Messages []string
	Err      error
}

func (e *AppError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, DomainError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case UnauthorizedError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a ValidationError with one message per offending field.
func NewValidationError(messages ...string) *AppError {
	return &AppError{Type: ValidationError, Messages: messages}
}

// NewDomainError creates a DomainError listing every reason the request was refused.
func NewDomainError(messages []string, underlyingError error) *AppError {
	return &AppError{Type: DomainError, Messages: messages, Err: underlyingError}
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: NotFoundError, Messages: []string{message}}
}

// NewUnauthorizedError creates an UnauthorizedError. The message is for logs only.
func NewUnauthorizedError(message string, underlyingError error) *AppError {
	return &AppError{Type: UnauthorizedError, Messages: []string{message}, Err: underlyingError}
}

// NewInternalError creates an InternalError.
func NewInternalError(message string, underlyingError error) *AppError {
	return &AppError{Type: InternalError, Messages: []string{message}, Err: underlyingError}
}

// FromError returns err as an *AppError, wrapping anything else as an InternalError.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("An unexpected error occurred.", err)
}

// IsType reports whether err is an *AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
