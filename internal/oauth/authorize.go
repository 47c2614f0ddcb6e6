package oauth

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ProviderConfig describes the identity provider the login window opens.
type ProviderConfig struct {
	// AuthorizeURL defaults to GitHub's authorize endpoint.
	AuthorizeURL string

	// TokenURL is not used by the client (the backend exchanges the code)
	// but completes the oauth2 endpoint.
	TokenURL string

	ClientID    string
	RedirectURI string
	Scopes      []string
}

func (p ProviderConfig) oauth2Config() *oauth2.Config {
	endpoint := github.Endpoint
	if p.AuthorizeURL != "" {
		endpoint.AuthURL = p.AuthorizeURL
	}
	if p.TokenURL != "" {
		endpoint.TokenURL = p.TokenURL
	}
	return &oauth2.Config{
		ClientID:    p.ClientID,
		Endpoint:    endpoint,
		RedirectURL: p.RedirectURI,
		Scopes:      p.Scopes,
	}
}

// AuthCodeURL returns the authorize URL for state. It carries client_id,
// redirect_uri, response_type=code and state.
func (p ProviderConfig) AuthCodeURL(state string) string {
	return p.oauth2Config().AuthCodeURL(state)
}

// NewState returns a fresh value for the state parameter.
func NewState() string {
	return uuid.NewString()
}
