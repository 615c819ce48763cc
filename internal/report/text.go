package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/reqhash/internal/model"
)

// TextWriter outputs human-readable text summaries.
// This format is designed for terminal display after a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// verbose enables the per-package outcome listing.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerboseText enables the per-package outcome listing.
func WithVerboseText(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *TextWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	if w.verbose {
		w.writePackages(&sb, summary)
	}
	w.writeWarnings(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *TextWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          REQHASH SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Input:     %s\n", summary.Source))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeCounts writes the resolution and hashing counts.
func (w *TextWriter) writeCounts(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(fmt.Sprintf("Packages:       %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("Resolved:       %d (%d preferred, %d default)\n",
		summary.Resolved, summary.FromPreferred, summary.FromDefault))
	sb.WriteString(fmt.Sprintf("Unresolved:     %d\n", summary.Unresolved))
	sb.WriteString(fmt.Sprintf("Hashed:         %d (%d hash entries)\n", summary.Hashed, summary.HashEntries))
	sb.WriteString("\n")
}

// writePackages writes the per-package outcome listing.
func (w *TextWriter) writePackages(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Packages) == 0 {
		return
	}

	sb.WriteString("Packages:\n")
	for _, p := range summary.Packages {
		status := p.IndexURL
		if p.Unresolved {
			status = "NOT FOUND"
		}
		sb.WriteString(fmt.Sprintf("  %-30s %s (%d hashes)\n", p.Name+p.Constraint, status, p.Hashes))
	}
	sb.WriteString("\n")
}

// writeWarnings writes the collected warnings, if any.
func (w *TextWriter) writeWarnings(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Warnings) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(summary.Warnings)))
	for _, warn := range summary.Warnings {
		if warn.Package != "" {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", warn.Package, warn.Reason))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", warn.Reason))
		}
	}
	sb.WriteString("\n")
}
