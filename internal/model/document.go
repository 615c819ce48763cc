package model

import (
	"strings"
)

// EntryKind distinguishes the line types in a requirements file.
type EntryKind int

const (
	// EntrySpecifier is a package specifier line.
	EntrySpecifier EntryKind = iota
	// EntryComment is a full-line comment.
	EntryComment
	// EntryBlank is an empty line.
	EntryBlank
)

// Entry is one line of a requirements document. Comment and blank lines
// are carried through so the output keeps the shape of the input.
type Entry struct {
	// Kind identifies the line type.
	Kind EntryKind `json:"kind"`

	// Raw is the original line text for comment and blank entries.
	Raw string `json:"raw,omitempty"`

	// Spec is the parsed specifier for EntrySpecifier entries, nil otherwise.
	Spec *Specifier `json:"spec,omitempty"`
}

// Document is the ordered requirements file flowing through the pipeline.
// The reqfile parser creates it, pipeline steps annotate the specifiers in
// place, and the writer renders it back to requirements syntax.
//
// Invariant: Entries preserves the input order; rendering emits exactly one
// output line per input line.
type Document struct {
	// Source is the input file path, used for logging and report output.
	Source string `json:"source"`

	// Entries are the document lines in input order.
	Entries []Entry `json:"entries"`

	// Warnings collects per-package failures that did not abort the run,
	// e.g. packages found in no index or artifacts that could not be hashed.
	Warnings []Warning `json:"warnings,omitempty"`
}

// Warning records a non-fatal per-package failure.
type Warning struct {
	// Package is the normalized package name, empty for document-level warnings.
	Package string `json:"package,omitempty"`

	// Reason describes the failure.
	Reason string `json:"reason"`
}

// NewDocument creates an empty Document for the given source path.
func NewDocument(source string) *Document {
	return &Document{Source: source}
}

// AddSpecifier appends a specifier entry.
func (d *Document) AddSpecifier(spec *Specifier) {
	d.Entries = append(d.Entries, Entry{Kind: EntrySpecifier, Spec: spec})
}

// AddComment appends a comment line verbatim.
func (d *Document) AddComment(raw string) {
	d.Entries = append(d.Entries, Entry{Kind: EntryComment, Raw: raw})
}

// AddBlank appends a blank line.
func (d *Document) AddBlank() {
	d.Entries = append(d.Entries, Entry{Kind: EntryBlank})
}

// AddWarning records a non-fatal per-package failure.
func (d *Document) AddWarning(pkg, reason string) {
	d.Warnings = append(d.Warnings, Warning{Package: pkg, Reason: reason})
}

// Specifiers returns the specifier entries in document order.
func (d *Document) Specifiers() []*Specifier {
	specs := make([]*Specifier, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Kind == EntrySpecifier {
			specs = append(specs, e.Spec)
		}
	}
	return specs
}

// Lines renders the annotated document, one output line per input line.
// Specifier lines carry their index directive and hash tokens; unresolved
// specifiers and direct references are emitted as written.
func (d *Document) Lines() []string {
	lines := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		switch e.Kind {
		case EntrySpecifier:
			lines = append(lines, e.Spec.Render())
		case EntryComment:
			lines = append(lines, e.Raw)
		case EntryBlank:
			lines = append(lines, "")
		}
	}
	return lines
}

// Render returns the annotated output line for the specifier.
func (s *Specifier) Render() string {
	var b strings.Builder
	b.WriteString(s.Raw)
	if s.IndexURL != "" {
		b.WriteString(" --index-url ")
		b.WriteString(s.IndexURL)
	}
	for _, h := range s.Hashes {
		b.WriteString(" ")
		b.WriteString(h.Token())
	}
	return b.String()
}
