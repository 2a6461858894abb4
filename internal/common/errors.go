package common

import (
	"errors"
	"net/http"
)

// AppError carries an error code and HTTP status alongside the underlying
// cause, so handlers can render a consistent error payload.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ErrNotFound builds a 404 AppError. Resources the caller may not access are
// reported as missing rather than forbidden.
func ErrNotFound(message string) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, nil)
}

// ErrInvalidArgument builds a 400 AppError for malformed or missing input.
func ErrInvalidArgument(message string) *AppError {
	return NewAppError("INVALID_ARGUMENT", message, http.StatusBadRequest, nil)
}

// ErrUnauthenticated builds a 401 AppError.
func ErrUnauthenticated(message string) *AppError {
	return NewAppError("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

// ErrUnprocessable builds a 422 AppError for semantically invalid records.
func ErrUnprocessable(message string, err error) *AppError {
	return NewAppError("UNPROCESSABLE", message, http.StatusUnprocessableEntity, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
