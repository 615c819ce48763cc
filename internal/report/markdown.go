package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/reqhash/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing, e.g. attaching
// the resolution summary to a pull request.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writePackages(md, summary)
	w.writeWarnings(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header and counts table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Requirements Hash Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + summary.Source + "`"},
			{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Packages", strconv.Itoa(summary.Total)},
			{"Resolved", strconv.Itoa(summary.Resolved)},
			{"From preferred index", strconv.Itoa(summary.FromPreferred)},
			{"From default index", strconv.Itoa(summary.FromDefault)},
			{"Unresolved", strconv.Itoa(summary.Unresolved)},
			{"Hash entries", strconv.Itoa(summary.HashEntries)},
		},
	})
	md.PlainText("")

	switch {
	case summary.Unresolved > 0:
		md.Warningf("%d package(s) were found in no configured index and are emitted without annotations.", summary.Unresolved)
	case len(summary.Warnings) > 0:
		md.Importantf("%d warning(s) were recorded during the run.", len(summary.Warnings))
	default:
		md.Tip("All packages resolved and hashed.")
	}
	md.PlainText("")
}

// writePackages writes the per-package outcome table.
func (w *MarkdownWriter) writePackages(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Packages")
	md.PlainText("")

	if len(summary.Packages) == 0 {
		md.PlainText("No package specifiers in input.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Packages))
	for i, p := range summary.Packages {
		idx := p.IndexURL
		if p.Unresolved {
			idx = "not found"
		}
		source := "default"
		if p.Preferred {
			source = "preferred"
		}
		if p.Unresolved {
			source = "-"
		}
		rows[i] = []string{
			"`" + p.Name + p.Constraint + "`",
			idx,
			source,
			strconv.Itoa(p.Hashes),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Specifier", "Index", "Source", "Hashes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWarnings writes the warnings section when warnings exist.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.Warnings) == 0 {
		return
	}

	md.H2("Warnings")
	md.PlainText("")

	items := make([]string, len(summary.Warnings))
	for i, warn := range summary.Warnings {
		if warn.Package != "" {
			items[i] = "`" + warn.Package + "`: " + warn.Reason
		} else {
			items[i] = warn.Reason
		}
	}
	md.BulletList(items...)
	md.PlainText("")
}
