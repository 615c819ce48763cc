package hashgen

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/reqhash/internal/config"
	"github.com/nao1215/reqhash/internal/index"
	"github.com/nao1215/reqhash/internal/model"
)

// Hash generation errors.
var (
	// ErrNoMatchingArtifacts is returned when the project page lists no
	// file covered by the specifier's version constraint.
	ErrNoMatchingArtifacts = errors.New("no distribution artifacts match the specifier")

	// ErrNoDigests is returned when artifacts matched but no digest could
	// be obtained for any of them, e.g. --no-download with an index that
	// publishes no hashes for the configured algorithm.
	ErrNoDigests = errors.New("no digests could be obtained for matching artifacts")

	// ErrDownloadFailed is returned when an artifact download for local
	// hashing fails.
	ErrDownloadFailed = errors.New("artifact download failed")
)

// Hasher computes integrity hashes for the distribution artifacts matching
// a specifier. Digests already published by the index are reused; when the
// index publishes no digest for the configured algorithm the artifact is
// downloaded and hashed locally, unless downloads are disabled.
type Hasher struct {
	// client lists release files via the simple API.
	client *index.Client

	// hc downloads artifacts for local hashing.
	hc *http.Client

	// algorithm is the digest algorithm for generated entries.
	algorithm string

	// download enables fetching artifacts whose listing lacks a usable digest.
	download bool

	// maxArtifactSize aborts downloads that exceed the limit.
	maxArtifactSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithAlgorithm sets the digest algorithm. The caller must pass a name
// accepted by model.SupportedAlgorithm.
func WithAlgorithm(algorithm string) Option {
	return func(h *Hasher) {
		h.algorithm = algorithm
	}
}

// WithDownload controls whether artifacts may be downloaded for local
// hashing. When disabled, only index-published digests are used.
func WithDownload(download bool) Option {
	return func(h *Hasher) {
		h.download = download
	}
}

// WithMaxArtifactSize limits artifact download size in bytes.
func WithMaxArtifactSize(size int64) Option {
	return func(h *Hasher) {
		h.maxArtifactSize = size
	}
}

// WithHTTPClient sets the HTTP client used for artifact downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *Hasher) {
		h.hc = hc
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hasher) {
		h.logger = logger
	}
}

// New creates a Hasher that lists release files through the given index
// client.
func New(client *index.Client, opts ...Option) *Hasher {
	h := &Hasher{
		client:          client,
		hc:              &http.Client{Timeout: config.DefaultTimeout},
		algorithm:       config.DefaultAlgorithm,
		download:        true,
		maxArtifactSize: config.DefaultMaxArtifactSize,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Algorithm returns the digest algorithm the hasher produces entries for.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hashes computes the hash entries for a specifier resolved to indexURL.
// Entries are sorted by artifact filename so output is deterministic.
// Artifacts whose digest could not be obtained are returned in skipped so
// the caller can report partial coverage: pip's hash-checking mode fails
// hard when it selects an artifact the emitted hashes do not cover.
func (h *Hasher) Hashes(ctx context.Context, indexURL string, spec *model.Specifier) (entries []model.HashEntry, skipped []string, err error) {
	files, err := h.client.Files(ctx, indexURL, spec.Normalized)
	if err != nil {
		return nil, nil, err
	}

	matched := MatchingFiles(files, spec)
	if len(matched) == 0 {
		return nil, nil, fmt.Errorf("%w: %s%s in %s", ErrNoMatchingArtifacts, spec.Normalized, spec.Constraint, indexURL)
	}

	entries = make([]model.HashEntry, 0, len(matched))
	for _, f := range matched {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		entry, err := h.fileHash(ctx, f)
		if err != nil {
			h.logger.Warn("skipping artifact",
				"package", spec.Normalized,
				"filename", f.Filename,
				"error", err,
			)
			skipped = append(skipped, f.Filename)
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: %s (algorithm %s)", ErrNoDigests, spec.Normalized, h.algorithm)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	sort.Strings(skipped)
	return entries, skipped, nil
}

// DirectHash downloads and hashes the artifact of a direct-reference
// specifier ("name @ url"). Direct references bypass the index entirely.
func (h *Hasher) DirectHash(ctx context.Context, spec *model.Specifier) (model.HashEntry, error) {
	digest, err := h.downloadDigest(ctx, spec.DirectURL)
	if err != nil {
		return model.HashEntry{}, err
	}
	return model.NewHashEntry(h.algorithm, digest, spec.DirectURL)
}

// fileHash obtains the digest for one release file, preferring the digest
// the index already published.
func (h *Hasher) fileHash(ctx context.Context, f index.ReleaseFile) (model.HashEntry, error) {
	if digest, ok := f.Digests[h.algorithm]; ok {
		return model.NewHashEntry(h.algorithm, digest, f.Filename)
	}

	if !h.download {
		return model.HashEntry{}, fmt.Errorf("index published no %s digest for %s and downloads are disabled", h.algorithm, f.Filename)
	}

	h.logger.Debug("downloading artifact for hashing", "filename", f.Filename, "url", f.URL)
	digest, err := h.downloadDigest(ctx, f.URL)
	if err != nil {
		return model.HashEntry{}, err
	}
	return model.NewHashEntry(h.algorithm, digest, f.Filename)
}

// downloadDigest streams the artifact at url through the configured digest.
// The body is never buffered in full; large wheels stream through the hash.
func (h *Hasher) downloadDigest(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", config.DefaultUserAgent)

	resp, err := h.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s answered %s", ErrDownloadFailed, url, resp.Status)
	}

	digest, err := newDigest(h.algorithm)
	if err != nil {
		return "", err
	}

	n, err := io.Copy(digest, io.LimitReader(resp.Body, h.maxArtifactSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	if n > h.maxArtifactSize {
		return "", fmt.Errorf("%w: %s exceeds size limit of %d bytes", ErrDownloadFailed, url, h.maxArtifactSize)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// newDigest returns a fresh hash.Hash for the algorithm name.
func newDigest(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case model.AlgorithmSHA256:
		return sha256.New(), nil
	case model.AlgorithmSHA384:
		return sha512.New384(), nil
	case model.AlgorithmSHA512:
		return sha512.New(), nil
	case model.AlgorithmBLAKE2b256:
		// Keyless BLAKE2b-256 construction never fails.
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedAlgorithm, algorithm)
	}
}
