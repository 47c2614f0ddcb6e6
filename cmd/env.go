package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"taboowiki/internal/api"
	"taboowiki/internal/cli"
	"taboowiki/internal/config"
	"taboowiki/internal/guard"
	"taboowiki/internal/session"

	"github.com/spf13/cobra"
)

// environment is what a command needs to talk to the backend.
type environment struct {
	cfg     config.Config
	session *session.Controller
}

// loadEnvironment loads the configuration, applies flag overrides and opens
// the session.
func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig(rootFlags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.apiURL != "" {
		cfg.Backend.URL = strings.TrimRight(rootFlags.apiURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --api-url: %w", err)
		}
	}
	if rootFlags.requestTimeout > 0 {
		cfg.Backend.Timeout = rootFlags.requestTimeout
	}

	storage, err := session.OpenStorage(cfg.Session.StorageDir, cfg.Session.Persist)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	controller := session.NewController(session.ControllerConfig{
		BaseURL: cfg.Backend.URL,
		Storage: storage,
		Timeout: cfg.Backend.Timeout,
	})

	return &environment{cfg: cfg, session: controller}, nil
}

func (e *environment) endpoint() string {
	return e.session.BaseURL()
}

func (e *environment) client() *api.Client {
	return api.NewClient(e.session)
}

// require runs the guard for policy before a protected command.
func (e *environment) require(ctx context.Context, policy guard.Policy) (*session.User, error) {
	g := guard.New(e.session, policy)
	g.Endpoint = e.endpoint()
	return g.Require(ctx)
}

// commandError maps backend and transport failures onto the cli error
// types that carry exit codes and hints.
func (e *environment) commandError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unauthorized():
			// A rejected session keeps its cached user until the next login.
			if _, ok := e.session.Store().User(); ok {
				return &cli.AuthExpiredError{Endpoint: e.endpoint()}
			}
			return &cli.AuthRequiredError{Endpoint: e.endpoint()}
		case apiErr.Forbidden():
			username := ""
			if user, ok := e.session.Store().User(); ok {
				username = user.Username
			}
			return &cli.ForbiddenError{Endpoint: e.endpoint(), Username: username}
		}
		return err
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return cli.ClassifyConnectionError(err, e.endpoint())
	}
	return err
}

// printer builds the output printer for cmd from the --output flags.
func printer(cmd *cobra.Command) (*cli.Printer, error) {
	return cli.NewPrinter(cmd.OutOrStdout(), outputFlags)
}

// info prints progress output unless --quiet is set.
func info(cmd *cobra.Command, format string, args ...interface{}) {
	if !rootFlags.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}
