package utils

import (
	"fmt"
	"net/http"
)

// AppError represents an application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// AlreadyPaidError flags an initiation attempt on a booking that has
// already been paid for
func AlreadyPaidError() *AppError {
	return NewAppError(http.StatusBadRequest, "Booking is already paid", nil)
}

// MissingReferenceError flags a verification call without a transaction
// reference
func MissingReferenceError() *AppError {
	return NewAppError(http.StatusBadRequest, "Transaction reference (tx_ref) is required", nil)
}

// UnexpectedError creates a 500 catch-all error
func UnexpectedError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}
