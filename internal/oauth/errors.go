package oauth

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies a failed backend call for the user facing message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConnection means the backend could not be reached at all.
	KindConnection
	// KindCORS means the backend refused the request because of its origin.
	KindCORS
	// KindNetwork means the connection broke or timed out.
	KindNetwork
)

// String returns the error code for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "CONNECTION_FAILED"
	case KindCORS:
		return "CORS_ERROR"
	case KindNetwork:
		return "NETWORK_CONNECTION_ERROR"
	default:
		return "NETWORK_ERROR"
	}
}

// Hint returns guidance for the user.
func (k ErrorKind) Hint() string {
	switch k {
	case KindConnection:
		return "cannot connect to the server, check that the backend is running"
	case KindCORS:
		return "cross-origin request blocked, ask an administrator to configure CORS"
	case KindNetwork:
		return "network connection error, check your network connection"
	default:
		return "network error, please try again"
	}
}

// ClassifyError determines the kind of a transport error.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	msg := err.Error()
	if strings.Contains(msg, "CORS") {
		return KindCORS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}
	for _, keyword := range []string{"connection refused", "no such host", "dial tcp"} {
		if strings.Contains(msg, keyword) {
			return KindConnection
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	for _, keyword := range []string{"connection reset", "network is unreachable", "timeout", "EOF"} {
		if strings.Contains(msg, keyword) {
			return KindNetwork
		}
	}
	return KindUnknown
}

// ExchangeError reports a failed code exchange with the backend.
type ExchangeError struct {
	// StatusCode is set when the backend answered with a non-2xx status.
	StatusCode int

	// Kind classifies transport failures.
	Kind ErrorKind

	Err error
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server responded with HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("network error: %s (%v)", e.Kind.Hint(), e.Err)
	}
	return "network error: " + e.Kind.Hint()
}

// Unwrap returns the underlying error.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}
