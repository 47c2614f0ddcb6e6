package cli

import (
	"fmt"
	"io"
	"strings"
)

// PlainTableWriter prints kubectl-style columns without box drawing, for
// copy/paste and piping into grep, awk or cut.
type PlainTableWriter struct {
	headers     []string
	rows        [][]string
	widths      []int
	padding     int
	showHeaders bool
	out         io.Writer
}

// NewPlainTableWriter creates a writer that prints headers by default.
func NewPlainTableWriter(out io.Writer) *PlainTableWriter {
	return &PlainTableWriter{padding: 3, showHeaders: true, out: out}
}

// SetHeaders sets the column headers. They are printed upper case.
func (w *PlainTableWriter) SetHeaders(headers []string) {
	w.headers = make([]string, len(headers))
	w.widths = make([]int, len(headers))
	for i, h := range headers {
		w.headers[i] = strings.ToUpper(h)
		w.widths[i] = len(w.headers[i])
	}
}

// SetNoHeaders suppresses the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// AppendRow adds a row, padding or truncating it to the header count.
func (w *PlainTableWriter) AppendRow(row []string) {
	normalized := make([]string, len(w.headers))
	for i := range normalized {
		if i < len(row) {
			normalized[i] = row[i]
			w.widths[i] = max(w.widths[i], len(row[i]))
		}
	}
	w.rows = append(w.rows, normalized)
}

// Render writes the table.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 {
		return
	}
	if w.showHeaders {
		w.printRow(w.headers)
	}
	for _, row := range w.rows {
		w.printRow(row)
	}
}

func (w *PlainTableWriter) printRow(row []string) {
	var sb strings.Builder
	for i, cell := range row {
		if i == len(row)-1 {
			sb.WriteString(cell)
			break
		}
		fmt.Fprintf(&sb, "%-*s", w.widths[i]+w.padding, cell)
	}
	fmt.Fprintln(w.out, strings.TrimRight(sb.String(), " "))
}
