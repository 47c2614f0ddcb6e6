// Package cli holds the terminal-facing pieces shared by the taboowiki
// commands: typed errors that map to exit codes, output formatting for
// tables, JSON and YAML, and the progress spinner.
//
// # Exit codes
//
// Commands return typed errors and the root command maps them to exit codes:
//
//	0  success
//	1  general error
//	2  authentication required (no session, expired session, missing privilege)
//	3  authentication failed (the login flow itself failed)
//
// # Output
//
// Printer renders lists as rounded go-pretty tables by default. The plain
// format prints kubectl-style columns without box drawing, which is easier to
// pipe into grep or awk. The json and yaml formats print the raw objects.
package cli
