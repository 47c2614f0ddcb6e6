package config

import "time"

// Config is the top-level taboowiki configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	Session SessionConfig `yaml:"session"`
	Popup   PopupConfig   `yaml:"popup"`
}

// BackendConfig describes the REST backend that owns sessions and sponsor data.
type BackendConfig struct {
	// URL is the backend base URL, without a trailing slash.
	URL string `yaml:"url"`

	// Timeout bounds every HTTP request made to the backend.
	Timeout time.Duration `yaml:"timeout"`
}

// OAuthConfig configures the identity provider and the local callback route.
type OAuthConfig struct {
	// AuthorizeURL is the provider's authorization endpoint.
	AuthorizeURL string `yaml:"authorizeUrl"`

	// TokenURL is the provider's token endpoint. The backend performs the
	// exchange, so this is only carried for completeness of the oauth2 endpoint.
	TokenURL string `yaml:"tokenUrl"`

	// ClientID is the OAuth application client id registered with the provider.
	ClientID string `yaml:"clientId"`

	// CallbackHost is the loopback host the callback server binds to.
	CallbackHost string `yaml:"callbackHost"`

	// CallbackPort is the port of the callback server. 0 picks a free port.
	CallbackPort int `yaml:"callbackPort"`

	// CallbackPath is the route that receives the provider redirect.
	CallbackPath string `yaml:"callbackPath"`

	// RedirectURI overrides the redirect URI sent to the provider. When empty
	// it is derived from the callback server address.
	RedirectURI string `yaml:"redirectUri,omitempty"`

	// AllowedOrigins lists the origins whose callback messages are trusted.
	// When empty only the callback server's own origin is trusted.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`

	// LoginTimeout bounds a whole login attempt.
	LoginTimeout time.Duration `yaml:"loginTimeout"`
}

// SessionConfig configures the persisted token store.
type SessionConfig struct {
	// StorageDir holds the token and cached user files.
	StorageDir string `yaml:"storageDir"`

	// Persist disables file persistence when false; the session then lives
	// only as long as the process.
	Persist bool `yaml:"persist"`
}

// PopupConfig configures the login popup.
type PopupConfig struct {
	// PollInterval is how often the coordinator checks whether the popup was closed.
	PollInterval time.Duration `yaml:"pollInterval"`

	// NoBrowser prints the authorization URL instead of launching a browser.
	NoBrowser bool `yaml:"noBrowser"`
}
