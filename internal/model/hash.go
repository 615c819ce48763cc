package model

import (
	"errors"
	"fmt"
	"strings"
)

// HashEntry errors.
var (
	// ErrInvalidHashEntry is returned when a hash token is malformed.
	ErrInvalidHashEntry = errors.New("invalid hash entry")
	// ErrUnsupportedAlgorithm is returned for digest algorithms reqhash
	// cannot compute or verify.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
)

// Digest algorithm names. These match the hash names published by
// PyPI-compatible indexes and accepted by pip's --hash option.
const (
	// AlgorithmSHA256 is the default algorithm and the one pip requires
	// at minimum for hash-checking mode.
	AlgorithmSHA256 = "sha256"
	// AlgorithmSHA384 is SHA-384.
	AlgorithmSHA384 = "sha384"
	// AlgorithmSHA512 is SHA-512.
	AlgorithmSHA512 = "sha512"
	// AlgorithmBLAKE2b256 is BLAKE2b with a 256-bit digest, published by
	// Warehouse as "blake2b_256".
	AlgorithmBLAKE2b256 = "blake2b_256"
)

// digestHexLength maps each supported algorithm to the length of its
// hex-encoded digest.
var digestHexLength = map[string]int{
	AlgorithmSHA256:     64,
	AlgorithmSHA384:     96,
	AlgorithmSHA512:     128,
	AlgorithmBLAKE2b256: 64,
}

// SupportedAlgorithm reports whether the named digest algorithm is supported.
func SupportedAlgorithm(name string) bool {
	_, ok := digestHexLength[name]
	return ok
}

// SupportedAlgorithms returns the supported algorithm names for help text
// and error messages, with the default first.
func SupportedAlgorithms() []string {
	return []string{AlgorithmSHA256, AlgorithmSHA384, AlgorithmSHA512, AlgorithmBLAKE2b256}
}

// HashEntry is a validated integrity hash for one distribution artifact.
// It renders as a pip --hash option token.
type HashEntry struct {
	// Algorithm is the digest algorithm name, e.g. "sha256".
	Algorithm string `json:"algorithm"`

	// Digest is the lowercase hex-encoded digest.
	Digest string `json:"digest"`

	// Filename is the artifact the digest belongs to. It is kept for
	// report output and cache storage; it does not appear in the token.
	Filename string `json:"filename,omitempty"`
}

// NewHashEntry creates a validated HashEntry.
func NewHashEntry(algorithm, digest, filename string) (HashEntry, error) {
	want, ok := digestHexLength[algorithm]
	if !ok {
		return HashEntry{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	digest = strings.ToLower(digest)
	if len(digest) != want || !isHex(digest) {
		return HashEntry{}, fmt.Errorf("%w: %s digest must be %d hex characters", ErrInvalidHashEntry, algorithm, want)
	}
	return HashEntry{Algorithm: algorithm, Digest: digest, Filename: filename}, nil
}

// ParseHashEntry parses an "algorithm:digest" pair.
func ParseHashEntry(s string) (HashEntry, error) {
	algorithm, digest, ok := strings.Cut(s, ":")
	if !ok {
		return HashEntry{}, fmt.Errorf("%w: %q is not algorithm:digest", ErrInvalidHashEntry, s)
	}
	return NewHashEntry(algorithm, digest, "")
}

// isHex reports whether s consists only of lowercase hex characters.
func isHex(s string) bool {
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isHexLetter := c >= 'a' && c <= 'f'
		if !isDigit && !isHexLetter {
			return false
		}
	}
	return true
}

// String returns the "algorithm:digest" form.
func (h HashEntry) String() string {
	return h.Algorithm + ":" + h.Digest
}

// Token returns the pip option form "--hash=algorithm:digest".
func (h HashEntry) Token() string {
	return "--hash=" + h.String()
}
