// Package errs provides the engine's domain error taxonomy.
// Errors carry a machine-readable code so callers can branch with errors.Is
// regardless of the message text.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidState          Code = "INVALID_STATE"
	CodeNotEligible           Code = "NOT_ELIGIBLE"
	CodeCapacityExceeded      Code = "CAPACITY_EXCEEDED"
	CodeConfigurationDisabled Code = "CONFIGURATION_DISABLED"
	CodeNotFound              Code = "NOT_FOUND"
)

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	InvalidState          = &Error{Code: CodeInvalidState}
	NotEligible           = &Error{Code: CodeNotEligible}
	CapacityExceeded      = &Error{Code: CodeCapacityExceeded}
	ConfigurationDisabled = &Error{Code: CodeConfigurationDisabled}
	NotFound              = &Error{Code: CodeNotFound}
)

// Error is a domain error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// With returns a copy of e with an extra metadata entry.
func (e *Error) With(key, value string) *Error {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	return &Error{Code: e.Code, Message: e.Message, Metadata: md, Cause: e.Cause}
}

// Invalidf reports an operation attempted in the wrong lifecycle state.
func Invalidf(format string, args ...any) *Error {
	return New(CodeInvalidState, format, args...)
}

// Ineligiblef reports a business-rule violation.
func Ineligiblef(format string, args ...any) *Error {
	return New(CodeNotEligible, format, args...)
}

// Fullf reports a room or storage at capacity.
func Fullf(format string, args ...any) *Error {
	return New(CodeCapacityExceeded, format, args...)
}

// NotFoundf reports a missing entity.
func NotFoundf(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

// Disabled reports a debug-only capability used while its flag is off.
// The message is fixed so callers cannot distinguish roles or reasons.
func Disabled(capability string) *Error {
	return &Error{
		Code:     CodeConfigurationDisabled,
		Message:  "operation disabled by configuration",
		Metadata: map[string]string{"capability": capability},
	}
}

// CodeOf extracts the code from err, or "" when err is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status a transport layer should return.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidState:
		return http.StatusConflict
	case CodeNotEligible:
		return http.StatusUnprocessableEntity
	case CodeCapacityExceeded:
		return http.StatusInsufficientStorage
	case CodeConfigurationDisabled:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case "":
		if err == nil {
			return http.StatusOK
		}
	}
	return http.StatusInternalServerError
}

// Recoverable reports whether a caller can fix the request and retry.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidState, CodeNotEligible, CodeCapacityExceeded:
		return true
	}
	return false
}
