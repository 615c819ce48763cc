package reqfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/reqhash/internal/model"
)

// Input validation errors.
var (
	// ErrEmptyFile is returned when the input contains no specifier lines.
	// An empty requirements file is almost always a mistake (wrong path,
	// truncated file), so it is treated as invalid input rather than as a
	// valid empty run.
	ErrEmptyFile = errors.New("requirements file contains no package specifiers")

	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("requirements file not found")
)

// ParseError reports an unparseable line with its position.
type ParseError struct {
	// Source is the input file path.
	Source string

	// Line is the 1-based line number.
	Line int

	// Text is the offending line.
	Text string

	// Err is the underlying specifier parse error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

// Unwrap returns the underlying parse error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads and validates a requirements file.
// It fails with ErrInputNotFound if the path does not exist, ErrEmptyFile
// if no specifier line is present, and a ParseError on the first line that
// is not a valid package specifier. All of these are fatal: a requirements
// file is either entirely valid or rejected.
func ParseFile(path string) (*model.Document, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open requirements file: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads requirements syntax from r. The source path is recorded on
// the document and used in error messages.
//
// Comment and blank lines are preserved as passthrough entries so the
// output keeps the shape of the input. Inline comments are stripped from
// specifier lines before parsing, and backslash line continuations are
// joined. The document preserves input order.
func Parse(r io.Reader, source string) (*model.Document, error) {
	doc := model.NewDocument(source)

	scanner := bufio.NewScanner(r)
	// Requirements lines are short, but a generous limit costs nothing
	// and avoids failing on generated files with very long markers.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		startLine := lineNo
		line := scanner.Text()

		// Join backslash continuations into one logical line.
		for strings.HasSuffix(strings.TrimRight(line, " \t"), "\\") && scanner.Scan() {
			lineNo++
			line = strings.TrimSuffix(strings.TrimRight(line, " \t"), "\\") + " " + strings.TrimSpace(scanner.Text())
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			doc.AddBlank()
			continue
		case strings.HasPrefix(trimmed, "#"):
			doc.AddComment(line)
			continue
		}

		spec, err := model.ParseSpecifier(stripInlineComment(trimmed), startLine)
		if err != nil {
			return nil, &ParseError{Source: source, Line: startLine, Text: trimmed, Err: err}
		}
		doc.AddSpecifier(spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read requirements file: %w", err)
	}

	if len(doc.Specifiers()) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, source)
	}

	return doc, nil
}

// stripInlineComment removes a trailing " # ..." comment from a specifier
// line. Per requirements syntax the hash starts a comment only when
// preceded by whitespace; a bare "#" inside a URL fragment is content.
func stripInlineComment(line string) string {
	for i := 1; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if line[i-1] == ' ' || line[i-1] == '\t' {
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}
