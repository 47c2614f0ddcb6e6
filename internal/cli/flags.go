package cli

import "github.com/spf13/cobra"

// CommandFlags holds the output flags shared by commands that print results.
type CommandFlags struct {
	// OutputFormat is one of table, plain, json or yaml.
	OutputFormat string
	// NoHeaders suppresses the header row in table output.
	NoHeaders bool
}

// RegisterOutputFlags registers --output/-o and --no-headers on cmd and its
// subcommands.
func RegisterOutputFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, plain, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
}
