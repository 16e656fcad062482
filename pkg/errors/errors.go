// Package errors provides structured error types for lovecontract.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, TUI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The three codes the signature flow revolves around are:
//   - STORE_ERROR: a backend read, upsert or clear failed
//   - DECODE_ERROR: a signature blob is malformed or in an unsupported format
//   - NOT_FOUND: the contract record does not exist yet
//
// The remaining codes describe rejected input and refused state transitions.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSlot, "unknown slot %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidSlot) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "upsert signature %s", slot)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSlot     Code = "INVALID_SLOT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeBlobTooLarge    Code = "BLOB_TOO_LARGE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Refused state transitions
	ErrCodeAlreadySigned  Code = "ALREADY_SIGNED"
	ErrCodeNoCapture      Code = "NO_CAPTURE"
	ErrCodeSaveInProgress Code = "SAVE_IN_PROGRESS"
	ErrCodeViewLocked     Code = "VIEW_LOCKED"

	// Capacity limits
	ErrCodeTooManySessions Code = "TOO_MANY_SESSIONS"

	// Backend and codec errors
	ErrCodeStore   Code = "STORE_ERROR"
	ErrCodeDecode  Code = "DECODE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// The outermost *Error wins, so re-wrapping a store failure as INTERNAL_ERROR
// hides the STORE_ERROR underneath.
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

// Store wraps a backend failure as a STORE_ERROR.
// A nil cause yields nil so call sites can wrap unconditionally.
func Store(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return Wrap(ErrCodeStore, cause, format, args...)
}

// Decode wraps a codec failure as a DECODE_ERROR.
func Decode(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeDecode, cause, format, args...)
}
