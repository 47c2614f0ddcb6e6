package config

import "time"

const (
	// DefaultBackendURL is the backend used when no configuration overrides it.
	DefaultBackendURL = "http://localhost:8080"

	// DefaultClientID is the GitHub OAuth application of the taboowiki console.
	DefaultClientID = "Ov23li2MIRnkuL9KBrac"

	// DefaultAuthorizeURL is GitHub's authorization endpoint.
	DefaultAuthorizeURL = "https://github.com/login/oauth/authorize"

	// DefaultTokenURL is GitHub's token endpoint.
	DefaultTokenURL = "https://github.com/login/oauth/access_token"

	// DefaultCallbackPath is the in-app route that receives the provider redirect.
	DefaultCallbackPath = "/auth/oauth-callback"

	// DefaultCallbackPort is the default port for the local callback server.
	DefaultCallbackPort = 3000

	// DefaultCallbackHost binds the callback server to loopback only.
	DefaultCallbackHost = "127.0.0.1"

	// DefaultRequestTimeout bounds backend requests.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultLoginTimeout bounds a login attempt.
	DefaultLoginTimeout = 10 * time.Minute

	// DefaultPollInterval is how often popup closure is checked.
	DefaultPollInterval = time.Second
)

// GetDefaultConfig returns the configuration used when config.yaml is absent.
// StorageDir is left empty; the session package resolves it under the user's
// config directory.
func GetDefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL:     DefaultBackendURL,
			Timeout: DefaultRequestTimeout,
		},
		OAuth: OAuthConfig{
			AuthorizeURL: DefaultAuthorizeURL,
			TokenURL:     DefaultTokenURL,
			ClientID:     DefaultClientID,
			CallbackHost: DefaultCallbackHost,
			CallbackPort: DefaultCallbackPort,
			CallbackPath: DefaultCallbackPath,
			LoginTimeout: DefaultLoginTimeout,
		},
		Session: SessionConfig{
			Persist: true,
		},
		Popup: PopupConfig{
			PollInterval: DefaultPollInterval,
		},
	}
}
