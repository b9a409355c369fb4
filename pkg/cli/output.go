package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"mercator-hq/relay/pkg/proxy/handlers"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output of tabular data.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or csv)", s)
	}
}

// TextRenderer is implemented by results with a human-readable form.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Table is implemented by results that can be written as rows.
type Table interface {
	Header() []string
	Rows() [][]string
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	if r, ok := data.(TextRenderer); ok {
		return r.RenderText(w)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats Table output as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	table, ok := data.(Table)
	if !ok {
		return fmt.Errorf("%T cannot be written as CSV", data)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(table.Header()); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(table.Rows()); err != nil {
		return err
	}
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// StatsView presents a /stats response. The text form is a summary followed
// by the recent request log; the CSV form is the log alone.
type StatsView struct {
	handlers.StatsResponse
}

// RenderText implements TextRenderer.
func (v StatsView) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Total requests:\t%d\n", v.TotalRequests)
	fmt.Fprintf(tw, "Succeeded:\t%d\n", v.SuccessRequests)
	fmt.Fprintf(tw, "Failed:\t%d\n", v.FailedRequests)
	fmt.Fprintf(tw, "Rate limit errors:\t%d\n", v.RateLimitErrors)
	fmt.Fprintf(tw, "Success rate:\t%.1f%%\n", v.SuccessRate)
	fmt.Fprintf(tw, "Uptime:\t%s\n", v.Uptime)
	fmt.Fprintf(tw, "Max attempts:\t%d\n", v.MaxAttempts)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(v.Entries) == 0 {
		_, err := fmt.Fprintln(w, "\nNo requests yet.")
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range v.Header() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range v.Rows() {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Header implements Table.
func (v StatsView) Header() []string {
	return []string{"TIME", "ENDPOINT", "STATUS", "RETRIES", "ERROR", "DETAIL"}
}

// Rows implements Table.
func (v StatsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		rows = append(rows, []string{
			e.Time.Format("2006-01-02 15:04:05"),
			e.Endpoint,
			e.Status,
			strconv.Itoa(e.Retries),
			e.Error,
			e.Detail,
		})
	}
	return rows
}
