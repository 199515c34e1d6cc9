package util

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status class a failed guard maps to. Handlers
// compare with errors.As, never by message substring.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

// AsAppError unwraps err into an *AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an AppError with the given status.
func IsStatus(err error, status int) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Status == status
}
