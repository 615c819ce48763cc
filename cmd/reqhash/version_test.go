package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	t.Run("ldflags value wins", func(t *testing.T) {
		orig := version
		defer func() { version = orig }()

		version = "v1.2.3"
		if got := getVersion(); got != "v1.2.3" {
			t.Errorf("getVersion() = %q, want %q", got, "v1.2.3")
		}
	})

	t.Run("never empty", func(t *testing.T) {
		if getVersion() == "" {
			t.Error("getVersion() returned empty string")
		}
	})
}

// TestVersionCmd tests the version subcommand output.
func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "reqhash version") {
		t.Errorf("output missing version line: %q", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("output missing commit line: %q", out)
	}
}
