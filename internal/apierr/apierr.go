package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the one error type that crosses the service boundary. Status maps
// directly onto the HTTP response code.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound covers both "does not exist" and "not owned by the caller" so the
// response never leaks whether a foreign row exists.
func NotFound(what string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Err: fmt.Errorf("%s not found", what)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusConflict, Code: "invalid_state", Err: fmt.Errorf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation", Err: fmt.Errorf(format, args...)}
}

// ConflictRetryable marks a unique-constraint race. Services retry the
// read-then-act sequence once before letting this escape.
func ConflictRetryable(err error) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: "conflict_retryable", Err: err}
}

func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == "conflict_retryable"
	}
	return false
}
