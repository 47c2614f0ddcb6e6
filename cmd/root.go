package cmd

import (
	"os"
	"time"

	"taboowiki/internal/cli"
	"taboowiki/pkg/logging"

	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags shared by every command.
var rootFlags struct {
	configPath string
	apiURL     string
	logLevel   string
	quiet      bool

	requestTimeout time.Duration
}

// outputFlags are the --output/--no-headers flags of commands that print results.
var outputFlags cli.CommandFlags

// rootCmd represents the base command for the taboowiki application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "taboowiki",
	Short: "Sign in to the taboowiki console and manage sponsorships",
	Long: `taboowiki signs you in to the taboowiki console with GitHub and gives
access to the sponsor ledger: public donations and rewards, your own
submissions, and the admin review queue.

Sessions are stored under ~/.config/taboowiki/session and refreshed
automatically when the backend reports them expired.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taboowiki version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Configuration directory (default $HOME/.config/taboowiki)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.apiURL, "api-url", "", "Backend URL, overrides backend.url from the config")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().DurationVar(&rootFlags.requestTimeout, "request-timeout", 0, "Backend request timeout, overrides backend.timeout from the config")
	cli.RegisterOutputFlags(rootCmd, &outputFlags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
