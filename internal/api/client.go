package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"taboowiki/internal/session"
	"taboowiki/pkg/logging"
)

const maxResponseBytes = 4 << 20

// APIError is a reply the backend refused, either with a non-2xx status or
// with success=false.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Status >= 300 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Path, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Path, msg)
}

// Unauthorized reports whether the backend rejected the session.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Forbidden reports whether the session lacks the required role.
func (e *APIError) Forbidden() bool {
	return e.Status == http.StatusForbidden
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the sponsor endpoints.
type Client struct {
	baseURL string
	http    Doer
}

// NewClient returns a client that sends every request through the session.
func NewClient(s *session.Controller) *Client {
	return &Client{baseURL: s.BaseURL(), http: s.HTTPClient()}
}

// NewClientWithDoer is NewClient for callers that bring their own transport.
func NewClientWithDoer(baseURL string, d Doer) *Client {
	return &Client{baseURL: baseURL, http: d}
}

func pageQuery(page, size int) url.Values {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// call sends one request and decodes the envelope's data into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("API", "%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return zero, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	var env Response[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Path: path}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return zero, apiErr
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("failed to decode response from %s: %w", path, decodeErr)
	}
	if !env.Success {
		return zero, &APIError{Status: resp.StatusCode, Path: path, Message: env.Message}
	}
	return env.Data, nil
}
