package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	// ErrConfig covers malformed settings or contradictory flag/file values.
	// Always fatal before the main loop starts.
	ErrConfig = "CONFIG"
	// ErrFeed covers Adafruit IO feed validation failures. Fatal only when
	// the upload mode is "force"; otherwise the agent degrades to no-upload.
	ErrFeed = "FEED"
	// ErrSample covers speed-test failures. The tick is skipped and stale
	// readings stay on display.
	ErrSample = "SAMPLE"
	// ErrThrottle is the rate-limit rejection from Adafruit IO. The
	// scheduler applies the flat throttle penalty and retries later.
	ErrThrottle = "THROTTLE"
	// ErrUpload covers all other upload failures. Logged and retried on the
	// next eligible cycle.
	ErrUpload = "UPLOAD"
	// ErrDisplay covers LED rendering failures. Rendering is skipped for
	// the tick.
	ErrDisplay = "DISPLAY"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Formatted as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrUpload code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrUpload,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with formatted output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
