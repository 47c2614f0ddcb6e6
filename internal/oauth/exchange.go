package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"taboowiki/internal/session"
)

// SuccessPath is the backend endpoint that exchanges an authorization code
// for a session token.
const SuccessPath = "/api/auth/oauth2/success"

// ExchangeResult is the backend's answer to a code exchange.
type ExchangeResult struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	User    *session.User `json:"user"`
	Message string        `json:"message"`
}

// Exchanger trades an authorization code for a session token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*ExchangeResult, error)
}

// BackendExchanger calls GET <backend>/api/auth/oauth2/success?code=.
// The call carries no session token.
type BackendExchanger struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Exchange implements Exchanger. Transport failures and non-2xx responses
// are returned as *ExchangeError; there is no retry.
func (e *BackendExchanger) Exchange(ctx context.Context, code string) (*ExchangeResult, error) {
	endpoint := strings.TrimRight(e.BaseURL, "/") + SuccessPath + "?code=" + url.QueryEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Kind: ClassifyError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &ExchangeError{StatusCode: resp.StatusCode}
	}

	var result ExchangeResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &result, nil
}
