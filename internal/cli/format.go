package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FormatError formats an error message for CLI output.
func FormatError(err error) string {
	return fmt.Sprintf("%s %v", text.FgRed.Sprint("Error:"), err)
}

// FormatSuccess formats a success message for CLI output.
func FormatSuccess(msg string) string {
	return fmt.Sprintf("%s %s", text.FgGreen.Sprint("✓"), msg)
}

// FormatWarning formats a warning message for CLI output.
func FormatWarning(msg string) string {
	return fmt.Sprintf("%s %s", text.FgYellow.Sprint("⚠"), msg)
}

// FormatStatus colors a review status.
func FormatStatus(status string) string {
	switch strings.ToUpper(status) {
	case "PENDING":
		return text.FgYellow.Sprint(status)
	case "APPROVED":
		return text.FgGreen.Sprint(status)
	case "REJECTED":
		return text.FgRed.Sprint(status)
	case "PAID":
		return text.FgCyan.Sprint(status)
	case "":
		return "-"
	default:
		return status
	}
}

// FormatAmount prints a money amount with two decimals and thousands separators.
func FormatAmount(amount float64) string {
	return "¥" + humanize.FormatFloat("#,###.##", amount)
}

// FormatTime prints a backend timestamp as local time. Values that do not
// parse are returned unchanged.
func FormatTime(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return value
}

// Truncate collapses whitespace so s stays on one line and shortens it to
// max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
