package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"taboowiki/internal/cli"
	"taboowiki/internal/guard"
	"taboowiki/internal/oauth"
	"taboowiki/internal/session"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// loginOpener replaces the system browser in tests.
var loginOpener oauth.Opener

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your taboowiki session",
	Long: `Manage the taboowiki console session.

Examples:
  taboowiki auth login                 # Log in with GitHub
  taboowiki auth login --no-browser    # Print the login URL instead of opening it
  taboowiki auth status                # Show and verify the stored session
  taboowiki auth status --watch        # Follow logins and logouts from other terminals
  taboowiki auth whoami                # Show the logged-in user
  taboowiki auth refresh               # Exchange the token for a fresh one
  taboowiki auth logout                # Clear the stored session`,
}

var loginFlags struct {
	noBrowser bool
	timeout   time.Duration
	port      int
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with GitHub",
	Long: `Log in to the taboowiki console with GitHub.

A local callback server is started and the GitHub authorization page is
opened in your browser. After you approve, the backend exchanges the code
for a session token which is stored under ~/.config/taboowiki/session.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session status",
	Long: `Show the stored session and verify it with the backend.

A session the backend rejects is cleared, exactly as when a protected page
is opened with an expired token.

With --watch the command keeps running and shows the status again whenever
another taboowiki process logs in, refreshes or logs out. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

var statusFlags struct {
	watch bool
}

// statusSettleDelay lets the token and user writes of one login land before
// the status is shown again.
var statusSettleDelay = 100 * time.Millisecond

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runAuthWhoami,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the session token for a fresh one",
	Args:  cobra.NoArgs,
	RunE:  runAuthRefresh,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authWhoamiCmd, authRefreshCmd)

	authLoginCmd.Flags().BoolVar(&loginFlags.noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	authLoginCmd.Flags().DurationVar(&loginFlags.timeout, "timeout", 0, "How long to wait for the login to complete (default from config, 10m)")
	authLoginCmd.Flags().IntVar(&loginFlags.port, "port", -1, "Callback server port, 0 picks a free port (default from config)")
	authStatusCmd.Flags().BoolVarP(&statusFlags.watch, "watch", "w", false, "Keep running and show the status whenever the stored session changes")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	cfg := env.cfg
	if loginFlags.noBrowser {
		cfg.Popup.NoBrowser = true
	}
	if loginFlags.timeout > 0 {
		cfg.OAuth.LoginTimeout = loginFlags.timeout
	}
	if loginFlags.port >= 0 {
		cfg.OAuth.CallbackPort = loginFlags.port
	}

	flow := &oauth.LoginFlow{
		Config:  cfg,
		Session: env.session,
		Opener:  loginOpener,
		Out:     cmd.OutOrStdout(),
	}

	var outcome oauth.Outcome
	err = cli.RunWithSpinner(cmd.ErrOrStderr(), rootFlags.quiet, "Waiting for GitHub login...", func() error {
		var runErr error
		outcome, runErr = flow.Run(cmd.Context())
		if runErr == nil && !outcome.Success() {
			runErr = errors.New(outcome.Message)
		}
		return runErr
	})
	if err != nil {
		return &cli.AuthFailedError{Endpoint: env.endpoint(), Reason: err}
	}

	name := "GitHub user"
	if outcome.User != nil {
		name = outcome.User.DisplayName()
	}
	info(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Logged in to %s as %s", env.endpoint(), name)))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	if !env.session.HasToken() {
		info(cmd, "Not logged in.\n")
		return env.session.Logout()
	}
	if err := env.session.Logout(); err != nil {
		return err
	}
	info(cmd, "%s\n", cli.FormatSuccess("Logged out from "+env.endpoint()))
	return nil
}

// statusReport is the machine readable form of auth status.
type statusReport struct {
	Endpoint string        `json:"endpoint"`
	Status   string        `json:"status"`
	User     *session.User `json:"user,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	p, err := printer(cmd)
	if err != nil {
		return err
	}

	if err := printStatus(cmd.Context(), env, p); err != nil || !statusFlags.watch {
		return err
	}
	return watchStatus(cmd, env, p)
}

// watchStatus prints the status again after every change to the stored
// session until the command is interrupted.
func watchStatus(cmd *cobra.Command, env *environment, p *cli.Printer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	changes := make(chan struct{}, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- env.session.Watch(ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if errors.Is(err, session.ErrWatchUnsupported) {
				return fmt.Errorf("--watch needs persistent session storage (session.persist: true): %w", err)
			}
			return err
		case <-changes:
			select {
			case <-time.After(statusSettleDelay):
			case <-ctx.Done():
				return nil
			}
			select {
			case <-changes:
			default:
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if err := printStatus(ctx, env, p); err != nil {
				return err
			}
		}
	}
}

// printStatus checks the stored session against the backend and prints it.
func printStatus(ctx context.Context, env *environment, p *cli.Printer) error {
	report := statusReport{Endpoint: env.endpoint()}
	var status string

	d := guard.New(env.session, guard.PolicyAuthenticated).Check(ctx)
	switch d.Reason {
	case guard.ReasonOK:
		report.Status = "authenticated"
		report.User = d.User
		status = text.FgGreen.Sprint("Authenticated")
	case guard.ReasonNoToken:
		report.Status = "not-authenticated"
		status = text.FgYellow.Sprint("Not authenticated") + " (run: taboowiki auth login)"
	case guard.ReasonInvalid:
		report.Status = "expired"
		status = text.FgYellow.Sprint("Session expired") + " (run: taboowiki auth login)"
	default:
		report.Status = "unreachable"
		connErr := cli.ClassifyConnectionError(d.Err, env.endpoint())
		report.Error = d.Err.Error()
		report.User, _ = env.session.Store().User()
		status = text.FgRed.Sprint("Connection failed") + ": " + connErr.Type.String()
	}

	fields := [][2]string{
		{"Endpoint", report.Endpoint},
		{"Status", status},
	}
	if report.User != nil {
		fields = append(fields, [2]string{"User", report.User.DisplayName()})
		if report.User.IsAdmin {
			fields = append(fields, [2]string{"Role", "admin"})
		}
	}
	return p.PrintFields(fields, report)
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	p, err := printer(cmd)
	if err != nil {
		return err
	}

	user, err := env.require(cmd.Context(), guard.PolicyAuthenticated)
	if err != nil {
		return err
	}
	return p.PrintFields(userFields(user), user)
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	err = env.session.Refresh(cmd.Context())
	switch {
	case errors.Is(err, session.ErrNoToken):
		return &cli.AuthRequiredError{Endpoint: env.endpoint()}
	case errors.Is(err, session.ErrRefreshRejected) || session.IsUnauthorized(err):
		if invErr := env.session.Invalidate(); invErr != nil {
			return invErr
		}
		return &cli.AuthExpiredError{Endpoint: env.endpoint()}
	case err != nil:
		return env.commandError(err)
	}
	info(cmd, "%s\n", cli.FormatSuccess("Session refreshed"))
	return nil
}

func userFields(u *session.User) [][2]string {
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fields := [][2]string{
		{"Username", u.Username},
		{"Nickname", orDash(u.Nickname)},
		{"Role", role},
		{"GitHub", orDash(u.GitHubUsername)},
	}
	if u.GitHubURL != "" {
		fields = append(fields, [2]string{"Profile", u.GitHubURL})
	}
	return fields
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
