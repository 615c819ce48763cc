package hashgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nao1215/reqhash/internal/index"
	"github.com/nao1215/reqhash/internal/model"
)

// newTestIndex starts a stub index serving one project page and its
// artifacts. The sdist link carries a published sha256 fragment; the wheel
// link has no fragment and must be downloaded to hash.
func newTestIndex(t *testing.T) (indexURL string, sdistDigest string, wheelDigest string) {
	t.Helper()

	sdistBody := []byte("sdist-bytes")
	wheelBody := []byte("wheel-bytes")

	sdistSum := sha256.Sum256(sdistBody)
	wheelSum := sha256.Sum256(wheelBody)
	sdistDigest = hex.EncodeToString(sdistSum[:])
	wheelDigest = hex.EncodeToString(wheelSum[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/simple/requests/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
<a href="/files/requests-2.31.0.tar.gz#sha256=%s">requests-2.31.0.tar.gz</a>
<a href="/files/requests-2.31.0-py3-none-any.whl">requests-2.31.0-py3-none-any.whl</a>
<a href="/files/requests-2.30.0.tar.gz#sha256=%s">requests-2.30.0.tar.gz</a>
</body></html>`, sdistDigest, sdistDigest)
	})
	mux.HandleFunc("/files/requests-2.31.0-py3-none-any.whl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(wheelBody) //nolint:errcheck // Test server
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(sdistBody) //nolint:errcheck // Test server
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL + "/simple", sdistDigest, wheelDigest
}

// TestHasherHashes tests digest collection for a pinned specifier.
func TestHasherHashes(t *testing.T) {
	t.Parallel()

	indexURL, sdistDigest, wheelDigest := newTestIndex(t)

	spec, err := model.ParseSpecifier("requests==2.31.0", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient())
	entries, skipped, err := h.Hashes(context.Background(), indexURL, spec)
	if err != nil {
		t.Fatalf("Hashes returned error: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}

	// Two artifacts for 2.31.0, sorted by filename: wheel before sdist.
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Filename != "requests-2.31.0-py3-none-any.whl" {
		t.Errorf("entries[0].Filename = %q", entries[0].Filename)
	}
	if entries[0].Digest != wheelDigest {
		t.Errorf("wheel digest = %q, want %q (locally computed)", entries[0].Digest, wheelDigest)
	}
	if entries[1].Digest != sdistDigest {
		t.Errorf("sdist digest = %q, want %q (index fragment)", entries[1].Digest, sdistDigest)
	}
	for _, e := range entries {
		if e.Algorithm != model.AlgorithmSHA256 {
			t.Errorf("Algorithm = %q, want sha256", e.Algorithm)
		}
	}
}

// TestHasherNoDownload tests that --no-download skips fragment-less artifacts.
func TestHasherNoDownload(t *testing.T) {
	t.Parallel()

	indexURL, sdistDigest, _ := newTestIndex(t)

	spec, err := model.ParseSpecifier("requests==2.31.0", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient(), WithDownload(false))
	entries, skipped, err := h.Hashes(context.Background(), indexURL, spec)
	if err != nil {
		t.Fatalf("Hashes returned error: %v", err)
	}

	// Only the sdist has a published digest; the wheel is reported skipped.
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Filename != "requests-2.31.0.tar.gz" {
		t.Errorf("Filename = %q", entries[0].Filename)
	}
	if len(skipped) != 1 || skipped[0] != "requests-2.31.0-py3-none-any.whl" {
		t.Errorf("skipped = %v, want the wheel", skipped)
	}
	if entries[0].Digest != sdistDigest {
		t.Errorf("Digest = %q, want published fragment", entries[0].Digest)
	}
}

// TestHasherNoMatchingArtifacts tests the empty-match error.
func TestHasherNoMatchingArtifacts(t *testing.T) {
	t.Parallel()

	indexURL, _, _ := newTestIndex(t)

	spec, err := model.ParseSpecifier("requests==9.9.9", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient())
	_, _, err = h.Hashes(context.Background(), indexURL, spec)
	if !errors.Is(err, ErrNoMatchingArtifacts) {
		t.Errorf("error = %v, want ErrNoMatchingArtifacts", err)
	}
}

// TestHasherAlgorithmMismatchDownloads tests that a published sha256
// fragment is not reused when another algorithm is configured.
func TestHasherAlgorithmMismatchDownloads(t *testing.T) {
	t.Parallel()

	indexURL, _, _ := newTestIndex(t)

	spec, err := model.ParseSpecifier("requests==2.30.0", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient(), WithAlgorithm(model.AlgorithmSHA512))
	entries, _, err := h.Hashes(context.Background(), indexURL, spec)
	if err != nil {
		t.Fatalf("Hashes returned error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Algorithm != model.AlgorithmSHA512 {
		t.Errorf("Algorithm = %q, want sha512", entries[0].Algorithm)
	}
	if len(entries[0].Digest) != 128 {
		t.Errorf("digest length = %d, want 128 hex chars", len(entries[0].Digest))
	}
}

// TestHasherSizeLimit tests that oversized artifacts are rejected.
func TestHasherSizeLimit(t *testing.T) {
	t.Parallel()

	indexURL, _, _ := newTestIndex(t)

	spec, err := model.ParseSpecifier("requests==2.31.0", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	// The wheel has no published digest and is larger than 4 bytes, so
	// its download is rejected; the sdist digest still comes from the
	// index fragment.
	h := New(index.NewClient(), WithMaxArtifactSize(4))
	entries, skipped, err := h.Hashes(context.Background(), indexURL, spec)
	if err != nil {
		t.Fatalf("Hashes returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Filename != "requests-2.31.0.tar.gz" {
		t.Errorf("Filename = %q", entries[0].Filename)
	}
	if len(skipped) != 1 || skipped[0] != "requests-2.31.0-py3-none-any.whl" {
		t.Errorf("skipped = %v, want the oversized wheel", skipped)
	}
}

// TestDirectHash tests hashing of a direct-reference artifact.
func TestDirectHash(t *testing.T) {
	t.Parallel()

	body := []byte("direct-artifact")
	sum := sha256.Sum256(body)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body) //nolint:errcheck // Test server
	}))
	t.Cleanup(srv.Close)

	spec, err := model.ParseSpecifier("mylib @ "+srv.URL+"/mylib-1.0.tar.gz", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient())
	entry, err := h.DirectHash(context.Background(), spec)
	if err != nil {
		t.Fatalf("DirectHash returned error: %v", err)
	}
	if entry.Digest != hex.EncodeToString(sum[:]) {
		t.Errorf("Digest = %q, want %q", entry.Digest, hex.EncodeToString(sum[:]))
	}
}

// TestDirectHashDownloadFailure tests download error classification.
func TestDirectHashDownloadFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	spec, err := model.ParseSpecifier("mylib @ "+srv.URL+"/gone.tar.gz", 1)
	if err != nil {
		t.Fatalf("ParseSpecifier returned error: %v", err)
	}

	h := New(index.NewClient())
	if _, err := h.DirectHash(context.Background(), spec); !errors.Is(err, ErrDownloadFailed) {
		t.Errorf("error = %v, want ErrDownloadFailed", err)
	}
}
