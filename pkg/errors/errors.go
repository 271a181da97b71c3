// Package errors provides structured error types for mastower.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the engine packages
//   - Machine-readable error codes for programmatic handling
//   - Planner exit codes for unrecoverable conditions
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (task files, configuration)
//   - *_NOT_FOUND: Resource not found
//   - OUT_OF_*, TIMEOUT: Resource exhaustion
//   - CRITICAL_ERROR, INTERNAL_ERROR: Defects and unexpected states
//
// # Recoverable vs. fatal
//
// Everything returned as an error value is recoverable and reported to the
// user. Conditions after which a computed heuristic would be silently wrong
// (overflowing a product buffer, an unhandled enum value, exceeding label
// capacity, a broken transition system invariant) are fatal: they go through
// [ExitWith], which never returns.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTask, "unknown variable %d", v)
//	if errors.Is(err, errors.ErrCodeInvalidTask) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "failed to read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTask   Code = "INVALID_TASK"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Outcome of the abstraction construction
	ErrCodeUnsolvable Code = "UNSOLVABLE"

	// Resource exhaustion
	ErrCodeOutOfMemory Code = "OUT_OF_MEMORY"
	ErrCodeTimeout     Code = "TIMEOUT"

	// Internal errors
	ErrCodeCriticalError Code = "CRITICAL_ERROR"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
	ErrCodeUnsupported   Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
