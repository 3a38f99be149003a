package usecase

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorMalformedRequest          ErrorCode = "MALFORMED_REQUEST"
	ErrorUpstreamHTTP              ErrorCode = "UPSTREAM_HTTP_ERROR"
	ErrorUpstreamUnreachable       ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrorUpstreamContractViolation ErrorCode = "UPSTREAM_CONTRACT_VIOLATION"
	ErrorUnexpected                ErrorCode = "UNEXPECTED"
)

// Error is a classified relay failure. Reason is the caller-facing text;
// Status is the upstream status for ErrorUpstreamHTTP and zero otherwise.
type Error struct {
	Code   ErrorCode
	Reason string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UpstreamStatus returns the upstream HTTP status to pass through, or 500 when
// the failure did not come with one.
func (e *Error) UpstreamStatus() int {
	if e == nil || e.Code != ErrorUpstreamHTTP || e.Status < 100 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Unexpected wraps err as an ErrorUnexpected failure with err's text as reason.
func Unexpected(err error) *Error {
	return newError(ErrorUnexpected, err.Error(), err)
}
