package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RunWithSpinner runs fn while showing a spinner with suffix on out.
// With quiet set, fn runs without any output.
func RunWithSpinner(out io.Writer, quiet bool, suffix string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + suffix
	s.Start()

	err := fn()
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+suffix) + "\n"
	}
	s.Stop()
	return err
}
