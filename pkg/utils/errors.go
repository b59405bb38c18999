package utils

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/go-errors/errors"
)

// ErrorKind classifies an application error for transport mapping
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindPersistence        ErrorKind = "persistence_error"
	KindValidation         ErrorKind = "validation_failed"
	KindInvalidRequest     ErrorKind = "invalid_request"
)

// CustomError represents a custom application error
type CustomError struct {
	Kind    ErrorKind `json:"error"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`

	cause error
	stack []byte
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *CustomError) Unwrap() error {
	return e.cause
}

// Stack returns the stack captured when a persistence error was created
func (e *CustomError) Stack() []byte {
	return e.stack
}

// NewNotFoundError is returned when the addressed entity does not exist
func NewNotFoundError(message string) *CustomError {
	return &CustomError{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: message,
	}
}

// NewPreconditionFailedError is returned when a required related entity does not exist.
// It surfaces as a 404 like NotFound.
func NewPreconditionFailedError(message string) *CustomError {
	return &CustomError{
		Kind:    KindPreconditionFailed,
		Code:    http.StatusNotFound,
		Message: message,
	}
}

// NewPersistenceError wraps a storage failure. The underlying error text is
// interpolated into the message returned to the caller.
func NewPersistenceError(operation string, err error) *CustomError {
	return &CustomError{
		Kind:    KindPersistence,
		Code:    http.StatusInternalServerError,
		Message: fmt.Sprintf("Error %s: %v", operation, err),
		cause:   err,
		stack:   goerrors.Wrap(err, 1).Stack(),
	}
}

func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Kind:    KindInvalidRequest,
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// AsCustomError extracts a *CustomError from an error chain
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Kind == kind
}
