package generator

import (
	"fmt"
	"net/http"
)

// HTTPStatusError captures a non-2xx upstream response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("generator: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Reason is the standard reason phrase for the status, or "HTTP <code>" for
// codes without one.
func (e *HTTPStatusError) Reason() string {
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TransportError means the upstream could not be reached or did not answer in
// time.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generator: request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Unreachable() bool { return true }

// ContractError means the upstream answered 2xx without the shape the active
// profile expects.
type ContractError struct {
	Profile string
	Err     error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("generator: %s profile: %v", e.Profile, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

func (e *ContractError) ContractViolation() bool { return true }
