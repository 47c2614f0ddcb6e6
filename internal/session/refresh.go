package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// RefreshPath is the backend endpoint that exchanges a token for a new one.
const RefreshPath = "/api/auth/refresh"

// RefreshState is the per-request authorization state of Transport.
type RefreshState int

const (
	// StateAuthorized means the request carries the current token.
	StateAuthorized RefreshState = iota

	// StateRefreshing means a 401 was received and a refresh is in flight.
	StateRefreshing

	// StateUnauthenticated means the refresh failed and the token was cleared.
	StateUnauthenticated
)

// String returns the string representation of the refresh state.
func (s RefreshState) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateRefreshing:
		return "refreshing"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// errRetryBudgetExhausted is returned when a request tries to refresh twice.
var errRetryBudgetExhausted = errors.New("refresh already attempted for this request")

// refreshMachine tracks one request through the refresh states and enforces
// the single refresh budget.
type refreshMachine struct {
	state     RefreshState
	refreshed bool
	observe   func(from, to RefreshState)
}

func newRefreshMachine(observe func(from, to RefreshState)) *refreshMachine {
	return &refreshMachine{state: StateAuthorized, observe: observe}
}

// transition moves to the next state. Allowed moves:
//
//	authorized -> refreshing (once per request)
//	refreshing -> authorized | unauthenticated
func (m *refreshMachine) transition(to RefreshState) error {
	from := m.state
	switch {
	case from == StateAuthorized && to == StateRefreshing:
		if m.refreshed {
			return errRetryBudgetExhausted
		}
		m.refreshed = true
	case from == StateRefreshing && (to == StateAuthorized || to == StateUnauthenticated):
	default:
		return fmt.Errorf("invalid refresh transition %s -> %s", from, to)
	}
	m.state = to
	if m.observe != nil {
		m.observe(from, to)
	}
	return nil
}

// Refresher obtains a new token for the current one.
type Refresher interface {
	Refresh(ctx context.Context, token string) (string, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, token string) (string, error)

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// BackendRefresher calls POST <backend>/api/auth/refresh with the bearer token.
type BackendRefresher struct {
	BaseURL string

	// HTTPClient must not be wrapped by Transport, or a 401 from the refresh
	// endpoint would recurse.
	HTTPClient *http.Client
}

type refreshResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Refresh implements Refresher.
func (r *BackendRefresher) Refresh(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+RefreshPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode/100 != 2 {
			return "", &StatusError{StatusCode: resp.StatusCode}
		}
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if !out.Success || out.Token == "" {
		if out.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrRefreshRejected, out.Message)
		}
		return "", ErrRefreshRejected
	}
	return out.Token, nil
}
