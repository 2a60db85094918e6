package api

import (
	"errors"
	"fmt"
)

// Standard remote API error types.
var (
	// ErrUnauthorized indicates the instance rejected the credential.
	ErrUnauthorized = errors.New("api key rejected")

	// ErrRequestFailed indicates a non-2xx response other than 401.
	ErrRequestFailed = errors.New("request failed")
)

// RequestError wraps a failed API call with the response context needed by
// callers that inspect the remote complaint.
type RequestError struct {
	Op         string // Operation, e.g. "GET /api/v1/workflows"
	StatusCode int    // HTTP status code, 0 for transport errors
	Status     string // HTTP status text if available
	Body       string // Response body snippet
	Err        error  // Underlying error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.StatusCode)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsUnauthorized checks if an error indicates a rejected credential.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode extracts the HTTP status code from an API error, 0 if none.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}

	return 0
}

// ResponseBody extracts the response body snippet from an API error.
func ResponseBody(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Body
	}

	return ""
}
