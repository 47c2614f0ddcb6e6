package session

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned when an operation needs a stored token and none exists.
var ErrNoToken = errors.New("no session token")

// ErrRefreshRejected is returned when the backend declines to refresh a token.
var ErrRefreshRejected = errors.New("token refresh rejected")

// ErrWatchUnsupported is returned by Controller.Watch when the session is not
// kept in files.
var ErrWatchUnsupported = errors.New("session storage cannot be watched")

// StatusError reports a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend responded with HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend responded with HTTP %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 StatusError.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
