package hub

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the named object does not exist in the hub
// repository. Expected on first run, before any credentials were persisted.
var ErrNotFound = errors.New("hub: object not found")

// HTTPError indicates a non-2xx response from the hub.
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("hub: http error: status %d", e.StatusCode)
}

// RateLimitError indicates the hub rate limited the request.
type RateLimitError struct {
	// StatusCode is the HTTP status code (429 or 503)
	StatusCode int
	// RetryAfter indicates how long to wait before retrying
	RetryAfter time.Duration
}

// Error returns a string representation of the rate limit error.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("hub: rate limited (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("hub: rate limited (status %d)", e.StatusCode)
}
