package apperrors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	TypeConfig   ErrorType = "Config"   // Malformed block size, unknown algorithm
	TypeInput    ErrorType = "Input"    // Missing, unreadable or non-regular input file
	TypeIO       ErrorType = "IO"       // Read failure once streaming has started
	TypeInternal ErrorType = "Internal" // Unexpected internal failure
)

// AppError is a categorized error. Message is what the user sees; Err keeps
// the underlying cause for errors.Is / errors.As.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(t ErrorType, msg string) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
	}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, t ErrorType, msg string) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// IsType reports whether any error in err's chain is an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
