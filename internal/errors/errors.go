// Package errors defines the stable error codes used across the intelligence core.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every failure mode the core can report
type ErrorCode string

const (
	// InvalidInput indicates malformed ingestion attributes (caller's bug)
	InvalidInput ErrorCode = "INVALID_INPUT"
	// UnsupportedFormat indicates a file extension/content no gatherer claims
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// DuplicateFile indicates a path or (name, size) collision with a tracked file
	DuplicateFile ErrorCode = "DUPLICATE_FILE"
	// CorruptSourceFile indicates a gatherer could not read required header fields
	CorruptSourceFile ErrorCode = "CORRUPT_SOURCE_FILE"
	// ConsistencyViolation indicates an internal invariant broke (two actions
	// sharing a destination+type); never silently patched over
	ConsistencyViolation ErrorCode = "CONSISTENCY_VIOLATION"
	// MissingProject indicates project matching was requested with no project set
	MissingProject ErrorCode = "MISSING_PROJECT"
	// InternalError indicates an unexpected failure
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// IntelError carries a stable code alongside the message and cause
type IntelError struct {
	Code    ErrorCode
	Message string
	cause   error
}

// New creates an IntelError with the given code and message
func New(code ErrorCode, message string) *IntelError {
	return &IntelError{Code: code, Message: message}
}

// Newf creates an IntelError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *IntelError {
	return &IntelError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an IntelError wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *IntelError {
	return &IntelError{Code: code, Message: message, cause: cause}
}

// Wrapf creates an IntelError with a formatted message wrapping a cause
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *IntelError {
	return &IntelError{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Error implements the error interface
func (e *IntelError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *IntelError) Unwrap() error {
	return e.cause
}

// CodeOf returns the ErrorCode carried by err, or InternalError when err
// carries none. Returns an empty code for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ie *IntelError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
