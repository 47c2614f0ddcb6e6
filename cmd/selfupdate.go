package cmd

import (
	"fmt"
	"io"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the repository whose GitHub releases carry the CLI builds.
const githubRepoSlug = "FxRayHughes/taboowiki"

// releaseSource replaces GitHub as the release feed in tests.
var releaseSource selfupdate.Source

var selfUpdateFlags struct {
	check bool
}

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
func newSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update taboowiki to the latest version",
		Long: `Checks for the latest release of taboowiki on GitHub and
updates the current binary if a newer version is found.

With --check the newer version is only reported and nothing is installed.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	c.Flags().BoolVar(&selfUpdateFlags.check, "check", false, "Only report whether a newer version exists")
	return c
}

func newUpdater() (*selfupdate.Updater, error) {
	return selfupdate.NewUpdater(selfupdate.Config{Source: releaseSource})
}

// runSelfUpdate checks the current version against the latest GitHub release and updates if necessary.
func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	// Development builds do not follow semantic versioning.
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintln(out, "Checking for updates...")

	updater, err := newUpdater()
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no taboowiki release for this platform found in %s", githubRepoSlug)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	printRelease(out, latest)
	if selfUpdateFlags.check {
		fmt.Fprintln(out, "Run 'taboowiki self-update' to install it.")
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}

func printRelease(out io.Writer, r *selfupdate.Release) {
	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", r.Version(), r.PublishedAt.Format("2006-01-02"))
	if r.ReleaseNotes != "" {
		fmt.Fprintf(out, "Release notes:\n%s\n", r.ReleaseNotes)
	}
}
