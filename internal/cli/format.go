package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// fatih/color disables these when output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// printer writes human-readable command output to one writer.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Section prints a section header
func (p *printer) Section(title string) {
	_, _ = fmt.Fprintln(p.w)
	_, _ = headerColor.Fprintf(p.w, "▸ %s\n", title)
	_, _ = fmt.Fprintln(p.w)
}

// Subsection prints a subsection header
func (p *printer) Subsection(title string) {
	_, _ = infoColor.Fprintf(p.w, "  %s\n", title)
}

// Success prints a success message with a checkmark
func (p *printer) Success(msg string) {
	_, _ = successColor.Fprintf(p.w, "✓ %s\n", msg)
}

// Warning prints a warning message with a warning symbol
func (p *printer) Warning(msg string) {
	_, _ = warningColor.Fprintf(p.w, "⚠ %s\n", msg)
}

// Error prints an error message with a cross
func (p *printer) Error(msg string) {
	_, _ = errorColor.Fprintf(p.w, "✗ %s\n", msg)
}

// Info prints an informational message
func (p *printer) Info(msg string) {
	_, _ = fmt.Fprintln(p.w, msg)
}

// LabelValue prints a label-value pair
func (p *printer) LabelValue(label, value string) {
	p.LabelValueWithColor(label, value, valueColor)
}

// LabelValueWithColor prints a label-value pair with a custom value color
func (p *printer) LabelValueWithColor(label, value string, valueClr *color.Color) {
	_, _ = labelColor.Fprintf(p.w, "  %s: ", label)
	_, _ = valueClr.Fprintln(p.w, value)
}

// List prints a list of items with bullet points
func (p *printer) List(items []string, indent int) {
	indentStr := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(p.w, "%s• %s\n", indentStr, item)
	}
}

// Table prints a simple table
func (p *printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	_, _ = fmt.Fprint(p.w, "  ")
	for i, header := range headers {
		if i > 0 {
			_, _ = fmt.Fprint(p.w, "  ")
		}
		_, _ = headerColor.Fprintf(p.w, "%-*s", colWidths[i], header)
	}
	_, _ = fmt.Fprintln(p.w)

	_, _ = fmt.Fprint(p.w, "  ")
	for i, width := range colWidths {
		if i > 0 {
			_, _ = fmt.Fprint(p.w, "  ")
		}
		_, _ = fmt.Fprint(p.w, strings.Repeat("-", width))
	}
	_, _ = fmt.Fprintln(p.w)

	for _, row := range rows {
		_, _ = fmt.Fprint(p.w, "  ")
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				_, _ = fmt.Fprint(p.w, "  ")
			}
			_, _ = valueColor.Fprintf(p.w, "%-*s", colWidths[i], cell)
		}
		_, _ = fmt.Fprintln(p.w)
	}
}

// EmptyState prints a message when there's no data to show
func (p *printer) EmptyState(msg string) {
	_, _ = dimColor.Fprintf(p.w, "  %s\n", msg)
}

// countNoun formats a count with the singular or plural noun.
func countNoun(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
