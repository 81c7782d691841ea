// internal/fatal/errors.go
package fatal

import (
	"errors"
	"fmt"
)

// Code classifies a terminal error. Every code ends the process; the code
// only decides the exit status and whether usage text was already shown.
type Code string

const (
	CodeUsage      Code = "USAGE"
	CodeValidation Code = "VALIDATION"
	CodeRuntime    Code = "RUNTIME"
)

// Sentinel errors for invariant violations inside the lifecycle machinery.
var (
	ErrInternalCrash   = errors.New("internal crash detected")
	ErrInvalidState    = errors.New("invalid lifecycle state")
	ErrAlreadyReleased = errors.New("already released")
)

// Error wraps a terminal failure with its classification
type Error struct {
	Code       Code
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, otherwise defers to the underlying error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Underlying: err,
	}
}

// Usage reports malformed options or an explicit help request.
func Usage(format string, args ...interface{}) *Error {
	return newError(CodeUsage, nil, format, args...)
}

// Validation reports a configuration value that cannot be used.
func Validation(format string, args ...interface{}) *Error {
	return newError(CodeValidation, nil, format, args...)
}

// Runtime reports a failure after the worker pool started.
func Runtime(err error, format string, args ...interface{}) *Error {
	return newError(CodeRuntime, err, format, args...)
}

// Exit statuses
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Code == CodeUsage {
		return ExitUsage
	}
	return ExitFailure
}

// CodeOf returns the classification of err, treating unclassified errors as runtime failures.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeRuntime
}
