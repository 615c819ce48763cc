package model

import "time"

// Summary is a condensed view of one reqhash run, used by the report
// writers. It carries counts and per-package outcomes but not the
// rendered requirements text.
type Summary struct {
	// Source is the input file path.
	Source string `json:"source"`

	// GeneratedAt is the time the summary was built.
	GeneratedAt time.Time `json:"generatedAt"`

	// Total is the number of specifier lines in the input.
	Total int `json:"total"`

	// Resolved is the number of specifiers that resolved to an index.
	Resolved int `json:"resolved"`

	// FromPreferred is the number of specifiers resolved by the
	// preferred index.
	FromPreferred int `json:"fromPreferred"`

	// FromDefault is the number of specifiers resolved by the default index.
	FromDefault int `json:"fromDefault"`

	// Unresolved is the number of specifiers found in no index.
	Unresolved int `json:"unresolved"`

	// Hashed is the number of specifiers that received at least one
	// hash entry.
	Hashed int `json:"hashed"`

	// HashEntries is the total number of hash tokens emitted.
	HashEntries int `json:"hashEntries"`

	// Packages lists the per-package outcomes in input order.
	Packages []PackageOutcome `json:"packages"`

	// Warnings are the non-fatal failures collected during the run.
	Warnings []Warning `json:"warnings,omitempty"`
}

// PackageOutcome is the resolution result for one specifier.
type PackageOutcome struct {
	// Name is the package name as written in the input.
	Name string `json:"name"`

	// Constraint is the version constraint, if any.
	Constraint string `json:"constraint,omitempty"`

	// IndexURL is the resolving index, empty when unresolved.
	IndexURL string `json:"indexURL,omitempty"`

	// Preferred reports whether the preferred index resolved the package.
	Preferred bool `json:"preferred,omitempty"`

	// Hashes is the number of hash entries attached.
	Hashes int `json:"hashes"`

	// Unresolved reports that the package was found in no index.
	Unresolved bool `json:"unresolved,omitempty"`
}

// NewSummary builds a Summary from an annotated document.
func NewSummary(doc *Document) *Summary {
	s := &Summary{
		Source:      doc.Source,
		GeneratedAt: time.Now(),
		Warnings:    doc.Warnings,
	}

	for _, spec := range doc.Specifiers() {
		s.Total++
		outcome := PackageOutcome{
			Name:       spec.Name,
			Constraint: spec.Constraint,
			IndexURL:   spec.IndexURL,
			Preferred:  spec.Preferred,
			Hashes:     len(spec.Hashes),
			Unresolved: spec.Unresolved,
		}
		if spec.IndexURL != "" {
			s.Resolved++
			if spec.Preferred {
				s.FromPreferred++
			} else {
				s.FromDefault++
			}
		}
		if spec.Unresolved {
			s.Unresolved++
		}
		if len(spec.Hashes) > 0 {
			s.Hashed++
			s.HashEntries += len(spec.Hashes)
		}
		s.Packages = append(s.Packages, outcome)
	}

	return s
}
