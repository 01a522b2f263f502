package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeDirective  ErrorType = "directive"
	ErrorTypeGenerate   ErrorType = "generate"
)

// GuardError is a structured error type with location context.
type GuardError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Set      string
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *GuardError) Error() string {
	var parts []string

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location+":")
	}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Set != "" {
		parts = append(parts, "set:"+e.Set)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *GuardError) Unwrap() error {
	return e.Cause
}

// Is matches another GuardError with the same type and code.
func (e *GuardError) Is(target error) bool {
	var t *GuardError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *GuardError) WithLocation(filePath string, line, column int) *GuardError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithSet names the flag set the error belongs to.
func (e *GuardError) WithSet(name string) *GuardError {
	e.Set = name

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *GuardError {
	return &GuardError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *GuardError {
	return &GuardError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *GuardError {
	return &GuardError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewDirectiveError creates an error for a malformed source directive.
func NewDirectiveError(code, message string, cause error) *GuardError {
	return &GuardError{
		Type:    ErrorTypeDirective,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewGenerateError creates a code generation error.
func NewGenerateError(code, message string, cause error) *GuardError {
	return &GuardError{
		Type:    ErrorTypeGenerate,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is a GuardError of the given type.
func IsType(err error, t ErrorType) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Type == t
	}

	return false
}

// IsDirectiveError checks if an error comes from directive parsing.
func IsDirectiveError(err error) bool {
	return IsType(err, ErrorTypeDirective)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return IsType(err, ErrorTypeConfig)
}
