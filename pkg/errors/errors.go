// Package errors provides structured error types for KitIcon.
//
// Every failure the renderer reports carries a machine-readable [Code]:
//   - DECODE_FAILURE: an image or model file is unreadable or unsupported
//   - NO_PIXEL_BUFFER: colorization was asked to work on an image without pixels
//   - COMPOSITING_FAILURE: a drawing context could not produce an image
//   - EXPORT_WRITE_FAILURE: the final bitmap could not be written
//   - INVALID_*: input validation failures
//
// No operation is retried. NO_PIXEL_BUFFER is the only non-fatal code: the
// operation is skipped and the caller keeps its original image.
//
// # Usage
//
//	err := errors.Wrap(errors.ErrCodeDecodeFailure, cause, "decode %s", path)
//	if errors.Is(err, errors.ErrCodeDecodeFailure) {
//	    // report to the user
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Rendering errors
	ErrCodeDecodeFailure      Code = "DECODE_FAILURE"
	ErrCodeNoPixelBuffer      Code = "NO_PIXEL_BUFFER"
	ErrCodeCompositingFailure Code = "COMPOSITING_FAILURE"
	ErrCodeExportWriteFailure Code = "EXPORT_WRITE_FAILURE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidSymbol Code = "INVALID_SYMBOL"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// ErrNoPixelBuffer is returned alongside the unchanged input image when an
// image has no pixels to colorize.
var ErrNoPixelBuffer = New(ErrCodeNoPixelBuffer, "image has no pixel buffer")

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
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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

// IsFatal reports whether err should abort the requested operation.
// A nil error and NO_PIXEL_BUFFER are not fatal.
func IsFatal(err error) bool {
	return err != nil && GetCode(err) != ErrCodeNoPixelBuffer
}
