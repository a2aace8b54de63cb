// Package core provides the error model shared by the session, action and executor layers.
package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies the type of error for reporting and run control.
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Text/font mismatch, dialog content missing
	ErrCategoryTimeout                         // Element or readiness wait timed out
	ErrCategoryConnection                      // Automation server unreachable, session init failed
	ErrCategoryProtocol                        // WebDriver returned an error payload
	ErrCategoryConfig                          // Invalid configuration or malformed script
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryProtocol:
		return "protocol"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// IsFatalToRun reports whether an error of this category must abort the whole run
// rather than only the current test case.
func (c ErrorCategory) IsFatalToRun() bool {
	return c == ErrCategoryConnection
}

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (locator, expected, actual, diff)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches predefined errors by code, so errors.Is(err, ErrWaitTimeout)
// holds for copies produced by WithCause/WithMessage/WithDetails.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	c := e.clone()
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c.Details = merged
	return c
}

// Detail returns a string detail value, or "" when absent.
func (e *ExecutionError) Detail(key string) string {
	if v, ok := e.Details[key].(string); ok {
		return v
	}
	return ""
}

func (e *ExecutionError) clone() *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Assertion errors
	ErrTextMismatch = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "text_mismatch",
		Message:  "text does not match expected value",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	// Connection errors
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}
	ErrSessionNotCreated = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_not_created",
		Message:  "could not create browser session",
	}

	// Protocol errors
	ErrRemoteCommand = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "remote_command_failed",
		Message:  "remote command failed",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMalformedScript = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "malformed_script",
		Message:  "script failed to compile",
	}
)

// CategoryOf returns the category of the first ExecutionError in err's chain.
// Errors that carry no category are treated as protocol errors.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryProtocol
}
