package model

import (
	"errors"
	"strings"
	"testing"
)

// TestNewHashEntry tests digest validation.
func TestNewHashEntry(t *testing.T) {
	t.Parallel()

	sha256Digest := strings.Repeat("ab", 32)

	t.Run("valid sha256", func(t *testing.T) {
		t.Parallel()

		h, err := NewHashEntry(AlgorithmSHA256, sha256Digest, "requests-2.31.0.tar.gz")
		if err != nil {
			t.Fatalf("NewHashEntry returned error: %v", err)
		}
		if h.String() != "sha256:"+sha256Digest {
			t.Errorf("String() = %q", h.String())
		}
		if h.Token() != "--hash=sha256:"+sha256Digest {
			t.Errorf("Token() = %q", h.Token())
		}
	})

	t.Run("uppercase digest is normalized", func(t *testing.T) {
		t.Parallel()

		h, err := NewHashEntry(AlgorithmSHA256, strings.ToUpper(sha256Digest), "")
		if err != nil {
			t.Fatalf("NewHashEntry returned error: %v", err)
		}
		if h.Digest != sha256Digest {
			t.Errorf("Digest = %q, want lowercase", h.Digest)
		}
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHashEntry("md5", strings.Repeat("a", 32), ""); !errors.Is(err, ErrUnsupportedAlgorithm) {
			t.Errorf("error = %v, want ErrUnsupportedAlgorithm", err)
		}
	})

	t.Run("wrong digest length", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHashEntry(AlgorithmSHA256, "abcd", ""); !errors.Is(err, ErrInvalidHashEntry) {
			t.Errorf("error = %v, want ErrInvalidHashEntry", err)
		}
	})

	t.Run("non-hex digest", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHashEntry(AlgorithmSHA256, strings.Repeat("zz", 32), ""); !errors.Is(err, ErrInvalidHashEntry) {
			t.Errorf("error = %v, want ErrInvalidHashEntry", err)
		}
	})
}

// TestParseHashEntry tests parsing of algorithm:digest pairs.
func TestParseHashEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid", input: "sha256:" + strings.Repeat("0f", 32)},
		{name: "valid sha512", input: "sha512:" + strings.Repeat("0f", 64)},
		{name: "valid blake2b", input: "blake2b_256:" + strings.Repeat("0f", 32)},
		{name: "missing separator", input: "sha256" + strings.Repeat("0f", 32), wantErr: ErrInvalidHashEntry},
		{name: "unknown algorithm", input: "crc32:abcd1234", wantErr: ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		tt := tt // capture range variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := ParseHashEntry(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHashEntry(%q) returned error: %v", tt.input, err)
			}
			if h.String() != tt.input {
				t.Errorf("String() = %q, want %q", h.String(), tt.input)
			}
		})
	}
}

// TestSupportedAlgorithms tests the algorithm registry.
func TestSupportedAlgorithms(t *testing.T) {
	t.Parallel()

	for _, alg := range SupportedAlgorithms() {
		alg := alg // capture range variable
		if !SupportedAlgorithm(alg) {
			t.Errorf("SupportedAlgorithm(%q) = false", alg)
		}
	}
	if SupportedAlgorithm("md5") {
		t.Error("SupportedAlgorithm(md5) = true, want false")
	}
	if SupportedAlgorithms()[0] != AlgorithmSHA256 {
		t.Error("default algorithm should be listed first")
	}
}
