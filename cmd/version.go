package cmd

import (
	"fmt"
	"runtime"

	"taboowiki/internal/cli"

	"github.com/spf13/cobra"
)

// versionInfo is the machine readable form of the version command.
type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// newVersionCmd creates the Cobra command for displaying the application version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of taboowiki",
		Long: `Print the taboowiki version. With -o json or -o yaml the Go version
and platform of the build are included.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(outputFlags.OutputFormat)
	if err != nil {
		return err
	}
	if format != cli.OutputFormatJSON && format != cli.OutputFormatYAML {
		fmt.Fprintf(cmd.OutOrStdout(), "taboowiki version %s\n", rootCmd.Version)
		return nil
	}

	p, err := printer(cmd)
	if err != nil {
		return err
	}
	info := versionInfo{
		Version:   rootCmd.Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	return p.PrintFields([][2]string{
		{"Version", info.Version},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	}, info)
}
