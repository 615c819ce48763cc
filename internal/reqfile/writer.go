package reqfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/reqhash/internal/model"
)

// Write renders the annotated document to w in requirements syntax,
// one line per input line with a trailing newline.
// The byte stream is identical whether w is a file or a terminal.
func Write(w io.Writer, doc *model.Document) (int, error) {
	var b strings.Builder
	for _, line := range doc.Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return io.WriteString(w, b.String())
}

// WriteFile renders the annotated document to the given path, creating
// parent directories as needed. The file content matches Write output
// byte for byte.
func WriteFile(path string, doc *model.Document) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // Requirements files are not sensitive
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := Write(f, doc); err != nil {
		_ = f.Close() //nolint:errcheck // Write error takes precedence
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return f.Close()
}
