package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"taboowiki/internal/config"
	"taboowiki/internal/session"
	"taboowiki/pkg/logging"
)

// LoginFlow wires the callback server, the message bus and a Coordinator
// for one interactive login.
type LoginFlow struct {
	Config  config.Config
	Session *session.Controller

	// Opener defaults to a BrowserOpener printing to Out.
	Opener Opener

	// Exchanger defaults to a BackendExchanger for Config.Backend.URL.
	Exchanger Exchanger

	// Out receives user facing progress such as the login URL.
	Out io.Writer

	// OnPhase observes the attempt's phase changes.
	OnPhase func(Phase)
}

// Run performs the login. The attempt is bounded by ctx and, when set, by
// Config.OAuth.LoginTimeout.
func (f *LoginFlow) Run(ctx context.Context) (Outcome, error) {
	if f.Config.OAuth.LoginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Config.OAuth.LoginTimeout)
		defer cancel()
	}

	oauthCfg := f.Config.OAuth
	state := NewState()
	bus := NewMessageBus()

	coordinator := &Coordinator{
		Opener:       f.opener(),
		Bus:          bus,
		Session:      f.Session,
		State:        state,
		PollInterval: f.Config.Popup.PollInterval,
		OnPhase:      f.OnPhase,
	}

	handler := &CallbackHandler{
		Exchanger: f.exchanger(),
		Bus:       bus,
		Session:   f.Session,
		State:     state,
		OnPhase:   coordinator.ObservePhase,
	}

	server := NewCallbackServer(oauthCfg.CallbackHost, oauthCfg.CallbackPort, oauthCfg.CallbackPath, handler)
	if bo, ok := coordinator.Opener.(*BrowserOpener); ok {
		server.OnCancel(bo.CloseAll)
	}

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	callbackURL, err := server.Start(serverCtx)
	if err != nil {
		return Outcome{}, err
	}
	handler.Origin = server.Origin()

	redirectURI := oauthCfg.RedirectURI
	if redirectURI == "" {
		redirectURI = callbackURL
	}
	provider := ProviderConfig{
		AuthorizeURL: oauthCfg.AuthorizeURL,
		TokenURL:     oauthCfg.TokenURL,
		ClientID:     oauthCfg.ClientID,
		RedirectURI:  redirectURI,
	}
	coordinator.AuthURL = provider.AuthCodeURL

	coordinator.AllowedOrigins = oauthCfg.AllowedOrigins
	if len(coordinator.AllowedOrigins) == 0 {
		coordinator.AllowedOrigins = []string{server.Origin()}
	}

	logging.Info("OAuth", "Starting GitHub login, callback at %s", callbackURL)
	outcome, err := coordinator.Login(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("login failed: %w", err)
	}
	return outcome, nil
}

func (f *LoginFlow) opener() Opener {
	if f.Opener != nil {
		return f.Opener
	}
	return &BrowserOpener{NoBrowser: f.Config.Popup.NoBrowser, Out: f.Out}
}

func (f *LoginFlow) exchanger() Exchanger {
	if f.Exchanger != nil {
		return f.Exchanger
	}
	return &BackendExchanger{
		BaseURL:    f.Config.Backend.URL,
		HTTPClient: &http.Client{Timeout: f.Config.Backend.Timeout},
	}
}
