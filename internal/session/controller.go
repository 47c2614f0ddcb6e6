package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taboowiki/pkg/logging"
)

// MePath returns the user behind the current token.
const MePath = "/api/auth/me"

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8080.
	BaseURL string

	// Storage backs the token store. Nil means no persistence.
	Storage Storage

	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Timeout applies to every request made through HTTPClient.
	Timeout time.Duration

	// Refresher overrides the backend refresh call.
	Refresher Refresher
}

// MeResponse is the body of GET /api/auth/me.
type MeResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// Status is a snapshot of the local session. It makes no network call.
type Status struct {
	HasToken bool
	User     *User
}

// Controller owns the session: the token store, the refreshing transport
// and the client that uses it. Nothing else writes session state.
type Controller struct {
	baseURL   string
	storage   Storage
	store     *TokenStore
	transport *Transport
	client    *http.Client
}

// NewController creates a Controller from cfg.
func NewController(cfg ControllerConfig) *Controller {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	store := NewTokenStore(cfg.Storage)

	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	refresher := cfg.Refresher
	if refresher == nil {
		// The refresh call bypasses Transport so a 401 cannot recurse.
		refresher = &BackendRefresher{
			BaseURL:    baseURL,
			HTTPClient: &http.Client{Transport: base, Timeout: cfg.Timeout},
		}
	}

	transport := NewTransport(base, store, refresher)
	return &Controller{
		baseURL:   baseURL,
		storage:   cfg.Storage,
		store:     store,
		transport: transport,
		client:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Controller) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the backend base URL.
func (c *Controller) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Store returns the token store.
func (c *Controller) Store() *TokenStore {
	return c.store
}

// Transport returns the refreshing transport.
func (c *Controller) Transport() *Transport {
	return c.transport
}

// HTTPClient returns the client that attaches and refreshes the token.
func (c *Controller) HTTPClient() *http.Client {
	return c.client
}

// HasToken reports whether a token is stored.
func (c *Controller) HasToken() bool {
	return c.store.HasToken()
}

// Adopt stores the result of a successful login.
func (c *Controller) Adopt(token string, user *User) error {
	if token == "" {
		return ErrNoToken
	}
	if err := c.store.Save(token); err != nil {
		return err
	}
	if err := c.store.SaveUser(user); err != nil {
		return err
	}
	if user != nil {
		logging.Audit("login_adopted", "Login result stored", "user", user.Username)
	}
	return nil
}

// Me fetches the current user. The cached user is replaced on success.
// A non-2xx response is returned as *StatusError.
func (c *Controller) Me(ctx context.Context) (*MeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(MePath), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var out MeResponse
		if json.Unmarshal(body, &out) == nil {
			se.Message = out.Message
		}
		return nil, se
	}

	var out MeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", MePath, err)
	}
	if out.Success && out.User != nil {
		if err := c.store.SaveUser(out.User); err != nil {
			logging.Warn("Session", "Failed to cache user: %v", err)
		}
	}
	return &out, nil
}

// Refresh exchanges the stored token for a new one outside of any request.
func (c *Controller) Refresh(ctx context.Context) error {
	token, ok := c.store.Get()
	if !ok {
		return ErrNoToken
	}
	if _, err := c.transport.refresh(ctx, token); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	return nil
}

// Logout clears the token and the cached user.
func (c *Controller) Logout() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	logging.Audit("logout", "Session cleared")
	return nil
}

// Invalidate drops a token the backend no longer accepts. The cached user
// is kept for display until the next login.
func (c *Controller) Invalidate() error {
	if err := c.store.Remove(); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	logging.Audit("token_invalidated", "Session token invalidated")
	return nil
}

// Status returns the local session state.
func (c *Controller) Status() Status {
	user, _ := c.store.User()
	return Status{HasToken: c.store.HasToken(), User: user}
}

// Watch calls onChange whenever the stored token or cached user changes,
// including writes by other processes sharing the storage directory. It
// blocks until ctx is done. Only file storage can be watched.
func (c *Controller) Watch(ctx context.Context, onChange func()) error {
	fs, ok := c.storage.(*FileStorage)
	if !ok {
		return ErrWatchUnsupported
	}
	return fs.Watch(ctx, func(key string) {
		if key == TokenKey || key == UserKey {
			onChange()
		}
	})
}
