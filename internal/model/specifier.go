package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Specifier errors.
var (
	// ErrEmptySpecifier is returned when the specifier line is empty.
	ErrEmptySpecifier = errors.New("specifier cannot be empty")
	// ErrInvalidSpecifier is returned when the line is not a parseable
	// package specifier.
	ErrInvalidSpecifier = errors.New("invalid package specifier")
	// ErrInvalidPackageName is returned when the package name does not
	// conform to PEP 508 naming rules.
	ErrInvalidPackageName = errors.New("invalid package name")
)

// comparisonOperators are the version comparison operators accepted in a
// constraint clause, ordered so that multi-character operators are tried
// before their single-character prefixes.
var comparisonOperators = []string{"===", "==", "!=", "~=", "<=", ">=", "<", ">"}

// namePattern validates package names per PEP 508: letters, digits,
// dots, hyphens, and underscores, starting and ending with a letter or digit.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// normalizeRuns collapses runs of separator characters for PEP 503
// name normalization.
var normalizeRuns = regexp.MustCompile(`[-_.]+`)

// NormalizeName normalizes a package name per PEP 503: lowercase with
// runs of hyphens, underscores, and dots collapsed to a single hyphen.
// Index URLs are built from the normalized name, so "Flask_SQLAlchemy"
// and "flask-sqlalchemy" probe the same project page.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRuns.ReplaceAllString(name, "-"))
}

// Specifier is a single package entry from a requirements file.
// It is created by the reqfile parser and annotated in place by the
// pipeline: the probe step sets IndexURL, the hash step sets Hashes.
// After the pipeline completes the value is treated as immutable.
type Specifier struct {
	// Name is the package name exactly as written in the input.
	Name string `json:"name"`

	// Normalized is the PEP 503 normalized form of Name.
	// This is the form used in index URLs and cache keys.
	Normalized string `json:"normalized"`

	// Extras are the optional extras requested in brackets,
	// e.g. "requests[security,socks]" yields ["security", "socks"].
	Extras []string `json:"extras,omitempty"`

	// Constraint is the raw version constraint, e.g. "==2.31.0" or
	// ">=1.0,<2.0". Empty when the specifier is unpinned.
	Constraint string `json:"constraint,omitempty"`

	// Marker is the environment marker following ";" if present,
	// e.g. `python_version < "3.11"`. Markers are carried through
	// verbatim; reqhash does not evaluate them.
	Marker string `json:"marker,omitempty"`

	// DirectURL is the artifact URL for direct references
	// ("name @ https://..."). Direct references are not probed against
	// an index; the referenced artifact is hashed directly.
	DirectURL string `json:"directURL,omitempty"`

	// Raw is the original specifier line with inline comments stripped.
	// Annotations are appended to this text when the document is rendered.
	Raw string `json:"raw"`

	// Line is the 1-based line number in the input file.
	Line int `json:"line"`

	// IndexURL is the index that resolved this specifier.
	// Set by the probe step; empty if the package was found in no index.
	IndexURL string `json:"indexURL,omitempty"`

	// Preferred records whether IndexURL is the preferred index.
	Preferred bool `json:"preferred,omitempty"`

	// Hashes are the integrity entries computed for the matching
	// distribution artifacts, sorted by artifact filename.
	Hashes []HashEntry `json:"hashes,omitempty"`

	// Unresolved is set when the package was found in no reachable index.
	// Unresolved specifiers are emitted without annotations.
	Unresolved bool `json:"unresolved,omitempty"`
}

// ParseSpecifier parses one requirements-file line into a Specifier.
// The line must already have inline comments stripped and whitespace trimmed.
// It accepts the PEP 508 subset that covers plain requirements files:
//
//	name
//	name[extra1,extra2]
//	name==1.2.3
//	name>=1.0,<2.0 ; python_version < "3.11"
//	name @ https://example.com/name-1.0.tar.gz
//
// Per-line options such as --hash or --index-url are rejected: reqhash
// generates those itself, and an input that already carries them is not a
// plain requirements file.
func ParseSpecifier(line string, lineNo int) (*Specifier, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, ErrEmptySpecifier
	}
	if strings.HasPrefix(text, "-") {
		return nil, fmt.Errorf("%w: option lines are not supported: %q", ErrInvalidSpecifier, text)
	}

	spec := &Specifier{Raw: text, Line: lineNo}

	// Split off the environment marker first; markers may contain
	// operators that would otherwise confuse constraint parsing.
	rest := text
	if idx := strings.Index(rest, ";"); idx >= 0 {
		spec.Marker = strings.TrimSpace(rest[idx+1:])
		rest = strings.TrimSpace(rest[:idx])
		if spec.Marker == "" {
			return nil, fmt.Errorf("%w: empty environment marker: %q", ErrInvalidSpecifier, text)
		}
	}

	// Direct reference: "name @ url".
	if name, url, ok := strings.Cut(rest, "@"); ok {
		spec.DirectURL = strings.TrimSpace(url)
		if spec.DirectURL == "" {
			return nil, fmt.Errorf("%w: direct reference without URL: %q", ErrInvalidSpecifier, text)
		}
		rest = strings.TrimSpace(name)
	}

	// Split off the version constraint at the first comparison operator.
	if idx := indexOperator(rest); idx >= 0 {
		spec.Constraint = strings.TrimSpace(rest[idx:])
		rest = strings.TrimSpace(rest[:idx])
		if err := validateConstraint(spec.Constraint); err != nil {
			return nil, fmt.Errorf("%w: %v in %q", ErrInvalidSpecifier, err, text)
		}
	}
	if spec.DirectURL != "" && spec.Constraint != "" {
		return nil, fmt.Errorf("%w: direct reference cannot carry a version constraint: %q", ErrInvalidSpecifier, text)
	}

	// Split off extras: "name[extra1,extra2]".
	if idx := strings.Index(rest, "["); idx >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return nil, fmt.Errorf("%w: unterminated extras: %q", ErrInvalidSpecifier, text)
		}
		for _, extra := range strings.Split(rest[idx+1:len(rest)-1], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				return nil, fmt.Errorf("%w: empty extra: %q", ErrInvalidSpecifier, text)
			}
			spec.Extras = append(spec.Extras, extra)
		}
		rest = rest[:idx]
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("%w: missing package name: %q", ErrInvalidSpecifier, text)
	}
	if !namePattern.MatchString(rest) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackageName, rest)
	}

	spec.Name = rest
	spec.Normalized = NormalizeName(rest)
	return spec, nil
}

// indexOperator returns the byte offset of the first comparison operator
// in s, or -1 if none is present.
func indexOperator(s string) int {
	idx := -1
	for _, op := range []string{"=", "<", ">", "!", "~"} {
		if i := strings.Index(s, op); i >= 0 && (idx == -1 || i < idx) {
			idx = i
		}
	}
	return idx
}

// validateConstraint checks that every comma-separated clause in the
// constraint starts with a known comparison operator and has a version.
func validateConstraint(constraint string) error {
	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return errors.New("empty constraint clause")
		}
		op := ""
		for _, candidate := range comparisonOperators {
			if strings.HasPrefix(clause, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return fmt.Errorf("constraint clause %q has no comparison operator", clause)
		}
		if strings.TrimSpace(clause[len(op):]) == "" {
			return fmt.Errorf("constraint clause %q has no version", clause)
		}
	}
	return nil
}

// IsPinned reports whether the specifier pins an exact version with
// a single "==" or "===" clause.
func (s *Specifier) IsPinned() bool {
	c := strings.TrimSpace(s.Constraint)
	if c == "" || strings.Contains(c, ",") {
		return false
	}
	return strings.HasPrefix(c, "==")
}

// PinnedVersion returns the exact version for pinned specifiers,
// or empty string when the specifier is not pinned.
func (s *Specifier) PinnedVersion() string {
	if !s.IsPinned() {
		return ""
	}
	c := strings.TrimSpace(s.Constraint)
	c = strings.TrimPrefix(c, "===")
	c = strings.TrimPrefix(c, "==")
	return strings.TrimSpace(c)
}

// String returns the raw specifier text.
func (s *Specifier) String() string {
	return s.Raw
}
