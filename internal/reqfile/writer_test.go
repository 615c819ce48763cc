package reqfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestWrite tests that file output matches buffer output byte for byte.
func TestWrite(t *testing.T) {
	t.Parallel()

	input := `# deps
requests==2.31.0

flask>=2.0
`
	doc, err := Parse(strings.NewReader(input), "requirements.txt")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for _, spec := range doc.Specifiers() {
		spec.IndexURL = "https://pypi.org/simple"
	}

	var buf bytes.Buffer
	n, err := Write(&buf, doc)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write reported %d bytes, buffer has %d", n, buf.Len())
	}

	path := filepath.Join(t.TempDir(), "out", "requirements.txt")
	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	fileContent, err := os.ReadFile(path) //nolint:gosec // Test-owned path
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(fileContent, buf.Bytes()) {
		t.Errorf("file content differs from buffer output:\nfile:   %q\nbuffer: %q", fileContent, buf.Bytes())
	}

	want := `# deps
requests==2.31.0 --index-url https://pypi.org/simple

flask>=2.0 --index-url https://pypi.org/simple
`
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

// TestWritePreservesCount tests the one-line-per-line invariant.
func TestWritePreservesCount(t *testing.T) {
	t.Parallel()

	input := "a==1.0\nb==2.0\nc==3.0\n"
	doc, err := Parse(strings.NewReader(input), "requirements.txt")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := Write(&buf, doc); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	gotLines := strings.Count(buf.String(), "\n")
	if gotLines != 3 {
		t.Errorf("output has %d lines, want 3", gotLines)
	}
}
