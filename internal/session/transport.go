package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"taboowiki/pkg/logging"
)

// maxResponseBytes caps the bodies this package reads into memory.
const maxResponseBytes = 1 << 20

// Transport is an http.RoundTripper that attaches the stored bearer token
// and refreshes it once when the backend answers 401.
//
// A request is retried at most once. If the refresh fails the stored token
// is cleared and the original 401 response is returned to the caller.
type Transport struct {
	// Base performs the actual requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	Store     *TokenStore
	Refresher Refresher

	// OnStateChange, if set, observes every refresh state transition.
	OnStateChange func(req *http.Request, from, to RefreshState)

	// Refreshes for the same token are shared between concurrent requests.
	refreshGroup singleflight.Group
}

// NewTransport creates a Transport over base.
func NewTransport(base http.RoundTripper, store *TokenStore, refresher Refresher) *Transport {
	return &Transport{Base: base, Store: store, Refresher: refresher}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	token, hasToken := t.Store.Get()
	resp, err := t.base().RoundTrip(t.authorize(req, token, getBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !hasToken || t.Refresher == nil {
		return resp, nil
	}

	machine := newRefreshMachine(func(from, to RefreshState) {
		logging.Debug("Session", "%s %s: %s -> %s", req.Method, req.URL.Path, from, to)
		if t.OnStateChange != nil {
			t.OnStateChange(req, from, to)
		}
	})
	if err := machine.transition(StateRefreshing); err != nil {
		return resp, nil
	}

	newToken, err := t.refresh(req.Context(), token)
	if err != nil {
		logging.AuditLevel(logging.LevelWarn, "token_refresh_failed", "Session token refresh failed",
			"path", req.URL.Path, "error", err.Error())
		if _, rmErr := t.Store.RemoveIfCurrent(token); rmErr != nil {
			logging.Warn("Session", "Failed to clear rejected token: %v", rmErr)
		}
		_ = machine.transition(StateUnauthenticated)
		return resp, nil
	}
	_ = machine.transition(StateAuthorized)

	drain(resp)

	retry := t.authorize(req, newToken, getBody)
	return t.base().RoundTrip(retry)
}

// refresh returns a fresh token for token. If the store already holds a
// different token, another request refreshed first and that token is used.
func (t *Transport) refresh(ctx context.Context, token string) (string, error) {
	v, err, shared := t.refreshGroup.Do(token, func() (interface{}, error) {
		if current, ok := t.Store.Get(); ok && current != token {
			return current, nil
		}
		newToken, err := t.Refresher.Refresh(ctx, token)
		if err != nil {
			return "", err
		}
		if err := t.Store.Save(newToken); err != nil {
			return "", err
		}
		logging.Audit("token_refreshed", "Session token refreshed")
		return newToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		logging.Debug("Session", "Joined in-flight token refresh")
	}
	return v.(string), nil
}

// authorize clones req with the bearer token and default content type set.
func (t *Transport) authorize(req *http.Request, token string, getBody func() (io.ReadCloser, error)) *http.Request {
	out := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err == nil {
			out.Body = body
		}
		out.GetBody = getBody
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	return out
}

// replayableBody returns a function producing fresh copies of the request
// body, buffering it once when the request has no GetBody.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// drain discards the rest of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
}
