package errors

import "fmt"

// ErrorCode classifies a tweetstash error.
type ErrorCode string

const (
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"    // 400
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"     // 401
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrUpstreamFailure ErrorCode = "UPSTREAM_FAILURE" // 502, swallowed at stage boundaries
	ErrStorageFailure  ErrorCode = "STORAGE_FAILURE"  // 500
)

// Error is a structured error with a code and an HTTP status.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInput creates a 400 error for bad or unparsable input.
func NewInvalidInput(msg string) *Error {
	return &Error{Code: ErrInvalidInput, Status: 400, Message: msg}
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized(msg string) *Error {
	return &Error{Code: ErrUnauthorized, Status: 401, Message: msg}
}

// NewNotFound creates a 404 error.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("tweet not found: %s", identifier),
	}
}

// NewUpstream creates a 502 error for AI or extraction provider failures.
// Optional pipeline stages convert these to degraded outcomes instead of
// surfacing them.
func NewUpstream(err error) *Error {
	msg := "upstream failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: ErrUpstreamFailure, Status: 502, Message: msg}
}

// NewStorage creates a 500 error for persistence failures on mandatory paths.
func NewStorage(err error) *Error {
	msg := "storage failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: ErrStorageFailure, Status: 500, Message: msg}
}

// Is checks whether err is an Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return 500
}
