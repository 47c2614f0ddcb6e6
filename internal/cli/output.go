package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatPlain OutputFormat = "plain"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputFormatTable, nil
	case OutputFormatTable, OutputFormatPlain, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, plain, json or yaml)", s)
	}
}

// Table is tabular output. Raw is printed instead for json and yaml.
type Table struct {
	Headers []string
	Rows    [][]string
	// Footer is printed below table and plain output, e.g. paging info.
	Footer string
	Raw    interface{}
}

// Printer writes command results in the selected format.
type Printer struct {
	Out       io.Writer
	Format    OutputFormat
	NoHeaders bool
}

// NewPrinter creates a Printer from the output flags.
func NewPrinter(out io.Writer, flags CommandFlags) (*Printer, error) {
	format, err := ParseOutputFormat(flags.OutputFormat)
	if err != nil {
		return nil, err
	}
	return &Printer{Out: out, Format: format, NoHeaders: flags.NoHeaders}, nil
}

// PrintTable prints t.
func (p *Printer) PrintTable(t Table) error {
	switch p.Format {
	case OutputFormatJSON:
		return p.printJSON(t.Raw)
	case OutputFormatYAML:
		return p.printYAML(t.Raw)
	case OutputFormatPlain:
		w := NewPlainTableWriter(p.Out)
		w.SetHeaders(t.Headers)
		w.SetNoHeaders(p.NoHeaders)
		for _, row := range t.Rows {
			w.AppendRow(row)
		}
		w.Render()
	default:
		if len(t.Rows) == 0 {
			fmt.Fprintln(p.Out, text.FgYellow.Sprint("No items found"))
			break
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(p.Out)
		tw.SetStyle(table.StyleRounded)
		if !p.NoHeaders {
			header := make(table.Row, len(t.Headers))
			for i, h := range t.Headers {
				header[i] = text.FgHiCyan.Sprint(strings.ToUpper(h))
			}
			tw.AppendHeader(header)
		}
		for _, row := range t.Rows {
			r := make(table.Row, len(row))
			for i, cell := range row {
				r[i] = cell
			}
			tw.AppendRow(r)
		}
		tw.Render()
	}

	if t.Footer != "" {
		fmt.Fprintln(p.Out, t.Footer)
	}
	return nil
}

// PrintFields prints name/value pairs as a two column table.
func (p *Printer) PrintFields(fields [][2]string, raw interface{}) error {
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f[0], f[1]}
	}
	return p.PrintTable(Table{Headers: []string{"Property", "Value"}, Rows: rows, Raw: raw})
}

func (p *Printer) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(data))
	return err
}

// printYAML goes through JSON first so field names match the json output.
func (p *Printer) printYAML(v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = p.Out.Write(out)
	return err
}
