package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/reqhash/internal/cache"
	"github.com/nao1215/reqhash/internal/config"
	"github.com/nao1215/reqhash/internal/hashgen"
	"github.com/nao1215/reqhash/internal/index"
	"github.com/nao1215/reqhash/internal/model"
)

// ProbeStep checks each specifier against the configured indexes and
// records which index, if any, hosts the package. The preferred index is
// probed before the default; a package pinned to an index in the
// configuration file is probed only against its pin.
//
// Results are kept on the step and consumed by AnnotateStep. Duplicate
// specifiers for the same package share one probe.
type ProbeStep struct {
	// client probes project pages via the simple API.
	client *index.Client

	// preferredIndex is probed first when set.
	preferredIndex string

	// defaultIndex is the fallback index.
	defaultIndex string

	// indexes carries per-package index pins from the configuration file.
	indexes *config.File

	// store caches probe results when non-nil.
	store *cache.Store

	// cacheTTL bounds the age of cached probe results.
	cacheTTL time.Duration

	// logger for structured logging.
	logger *slog.Logger

	// results maps normalized package names to probe outcomes.
	results map[string]model.IndexResult
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithPreferredIndex sets the index probed before the default.
func WithPreferredIndex(indexURL string) ProbeStepOption {
	return func(s *ProbeStep) {
		s.preferredIndex = indexURL
	}
}

// WithIndexFile sets the configuration file carrying per-package pins.
func WithIndexFile(f *config.File) ProbeStepOption {
	return func(s *ProbeStep) {
		s.indexes = f
	}
}

// WithProbeCache enables cached probe results with the given TTL.
func WithProbeCache(store *cache.Store, ttl time.Duration) ProbeStepOption {
	return func(s *ProbeStep) {
		s.store = store
		s.cacheTTL = ttl
	}
}

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates a probe step that falls back to defaultIndex.
func NewProbeStep(client *index.Client, defaultIndex string, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		client:       client,
		defaultIndex: defaultIndex,
		logger:       slog.Default(),
		results:      make(map[string]model.IndexResult),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Result returns the probe outcome for a normalized package name.
func (s *ProbeStep) Result(normalized string) (model.IndexResult, bool) {
	r, ok := s.results[normalized]
	return r, ok
}

// Do probes every specifier in document order. Direct references bypass
// the index and are skipped here.
func (s *ProbeStep) Do(ctx context.Context, doc *model.Document) error {
	for _, spec := range doc.Specifiers() {
		if spec.DirectURL != "" {
			continue
		}
		if _, ok := s.results[spec.Normalized]; ok {
			continue
		}

		result, err := s.probe(ctx, spec.Normalized)
		if err != nil {
			return err
		}
		s.results[spec.Normalized] = result
	}
	return nil
}

// probe tries the candidate indexes in order and returns the first hit.
// An unreachable index is logged and skipped as long as another candidate
// answers, so one dead mirror does not mask a package the next index
// hosts. When no candidate answers at all the probe fails: an outage must
// not be reported as the package being missing.
func (s *ProbeStep) probe(ctx context.Context, normalized string) (model.IndexResult, error) {
	var probeErr error
	answered := false

	for _, candidate := range s.candidates(normalized) {
		found, err := s.probeIndex(ctx, candidate.url, normalized)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return model.IndexResult{}, err
			}
			s.logger.Warn("index unreachable",
				"index", candidate.url,
				"package", normalized,
				"error", err,
			)
			probeErr = err
			continue
		}
		answered = true
		if found {
			return model.IndexResult{
				Package:   normalized,
				Found:     true,
				IndexURL:  candidate.url,
				Preferred: candidate.preferred,
			}, nil
		}
	}

	if !answered && probeErr != nil {
		return model.IndexResult{}, fmt.Errorf("no index answered for %s: %w", normalized, probeErr)
	}
	return model.IndexResult{Package: normalized}, nil
}

// candidate is one index to probe, with its role.
type candidate struct {
	url       string
	preferred bool
}

// candidates returns the probe order for a package: its configured pin
// alone when one exists, otherwise preferred then default.
func (s *ProbeStep) candidates(normalized string) []candidate {
	if pinned := s.indexes.PinnedIndex(normalized); pinned != "" {
		return []candidate{{url: config.NormalizeIndexURL(pinned)}}
	}

	var out []candidate
	if s.preferredIndex != "" {
		out = append(out, candidate{url: s.preferredIndex, preferred: true})
	}
	if s.defaultIndex != "" && s.defaultIndex != s.preferredIndex {
		out = append(out, candidate{url: s.defaultIndex})
	}
	return out
}

// probeIndex checks one index, consulting the cache first when enabled.
func (s *ProbeStep) probeIndex(ctx context.Context, indexURL, normalized string) (bool, error) {
	if s.store != nil {
		found, ok, err := s.store.GetProbe(ctx, indexURL, normalized, s.cacheTTL)
		if err != nil {
			s.logger.Warn("probe cache read failed", "error", err)
		} else if ok {
			s.logger.Debug("probe cache hit", "index", indexURL, "package", normalized, "found", found)
			return found, nil
		}
	}

	found, err := s.client.Probe(ctx, indexURL, normalized)
	if err != nil {
		return false, err
	}

	if s.store != nil {
		if err := s.store.PutProbe(ctx, indexURL, normalized, found); err != nil {
			s.logger.Warn("probe cache write failed", "error", err)
		}
	}
	return found, nil
}

// AnnotateStep applies probe results to the specifiers: resolved packages
// get their index URL, packages found nowhere are marked unresolved and
// recorded as warnings.
//
// Invariant: a specifier only ever carries the URL of an index that
// answered the probe for it. The preferred index URL is never attached to
// a package only the default index hosts.
type AnnotateStep struct {
	// probe supplies the results computed by the probe step.
	probe *ProbeStep

	// logger for structured logging.
	logger *slog.Logger
}

// NewAnnotateStep creates an annotate step consuming probe's results.
func NewAnnotateStep(probe *ProbeStep, logger *slog.Logger) *AnnotateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnotateStep{probe: probe, logger: logger}
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return "annotate"
}

// Do annotates every specifier with its probe outcome.
func (s *AnnotateStep) Do(ctx context.Context, doc *model.Document) error {
	for _, spec := range doc.Specifiers() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if spec.DirectURL != "" {
			continue
		}

		result, ok := s.probe.Result(spec.Normalized)
		if !ok || !result.Found {
			spec.Unresolved = true
			doc.AddWarning(spec.Normalized, fmt.Sprintf("package not found in any configured index (line %d)", spec.Line))
			s.logger.Warn("package unresolved", "package", spec.Normalized, "line", spec.Line)
			continue
		}

		spec.IndexURL = result.IndexURL
		spec.Preferred = result.Preferred
		s.logger.Debug("package resolved",
			"package", spec.Normalized,
			"index", result.IndexURL,
			"preferred", result.Preferred,
		)
	}
	return nil
}

// HashStep computes integrity hash entries for every resolved specifier.
// Per-package failures become document warnings; the specifier is emitted
// without hash tokens.
type HashStep struct {
	// hasher computes digests for matching artifacts.
	hasher *hashgen.Hasher

	// store caches computed digests when non-nil.
	store *cache.Store

	// cacheTTL bounds the age of cached digests.
	cacheTTL time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// HashStepOption configures a HashStep.
type HashStepOption func(*HashStep)

// WithDigestCache enables cached digests with the given TTL.
func WithDigestCache(store *cache.Store, ttl time.Duration) HashStepOption {
	return func(s *HashStep) {
		s.store = store
		s.cacheTTL = ttl
	}
}

// WithHashLogger sets a custom logger for the hash step.
func WithHashLogger(logger *slog.Logger) HashStepOption {
	return func(s *HashStep) {
		s.logger = logger
	}
}

// NewHashStep creates a hash step backed by the given hasher.
func NewHashStep(hasher *hashgen.Hasher, opts ...HashStepOption) *HashStep {
	s := &HashStep{
		hasher: hasher,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HashStep) Name() string {
	return "hash"
}

// Do computes hashes for every specifier that resolved to an index, and
// for direct references. Unresolved specifiers are skipped.
func (s *HashStep) Do(ctx context.Context, doc *model.Document) error {
	for _, spec := range doc.Specifiers() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch {
		case spec.DirectURL != "":
			entry, err := s.hasher.DirectHash(ctx, spec)
			if err != nil {
				doc.AddWarning(spec.Normalized, fmt.Sprintf("failed to hash direct reference: %v", err))
				s.logger.Warn("direct reference hash failed", "package", spec.Normalized, "error", err)
				continue
			}
			spec.Hashes = []model.HashEntry{entry}

		case spec.Unresolved:
			continue

		default:
			entries, skipped, err := s.packageHashes(ctx, spec)
			if err != nil {
				doc.AddWarning(spec.Normalized, fmt.Sprintf("failed to compute hashes: %v", err))
				s.logger.Warn("hash computation failed", "package", spec.Normalized, "error", err)
				continue
			}
			if len(skipped) > 0 {
				doc.AddWarning(spec.Normalized, fmt.Sprintf(
					"hashes cover %d of %d matching artifacts (no digest for %s)",
					len(entries), len(entries)+len(skipped), strings.Join(skipped, ", ")))
			}
			spec.Hashes = entries
		}
	}
	return nil
}

// packageHashes computes or recalls the hash entries for one specifier.
//
// Cached entries cover the whole project, so the specifier's constraint is
// re-applied locally before use; a cache hit that covers none of the
// matching artifacts falls through to a fresh computation.
func (s *HashStep) packageHashes(ctx context.Context, spec *model.Specifier) ([]model.HashEntry, []string, error) {
	if s.store != nil {
		cached, err := s.store.GetDigests(ctx, spec.IndexURL, spec.Normalized, s.hasher.Algorithm(), s.cacheTTL)
		if err != nil {
			s.logger.Warn("digest cache read failed", "error", err)
		} else if filtered := filterCached(cached, spec); len(filtered) > 0 {
			s.logger.Debug("digest cache hit", "package", spec.Normalized, "entries", len(filtered))
			return filtered, nil, nil
		}
	}

	entries, skipped, err := s.hasher.Hashes(ctx, spec.IndexURL, spec)
	if err != nil {
		return nil, nil, err
	}

	if s.store != nil {
		if err := s.store.PutDigests(ctx, spec.IndexURL, spec.Normalized, entries); err != nil {
			s.logger.Warn("digest cache write failed", "error", err)
		}
	}
	return entries, skipped, nil
}

// filterCached keeps the cached entries whose artifact the specifier's
// constraint covers.
func filterCached(entries []model.HashEntry, spec *model.Specifier) []model.HashEntry {
	if len(entries) == 0 {
		return nil
	}
	files := make([]index.ReleaseFile, len(entries))
	for i, e := range entries {
		files[i] = index.ReleaseFile{Filename: e.Filename}
	}
	matched := hashgen.MatchingFiles(files, spec)
	if len(matched) == 0 {
		return nil
	}

	keep := make(map[string]bool, len(matched))
	for _, f := range matched {
		keep[f.Filename] = true
	}
	out := make([]model.HashEntry, 0, len(entries))
	for _, e := range entries {
		if keep[e.Filename] {
			out = append(out, e)
		}
	}
	return out
}

// DefaultSteps assembles the standard probe, annotate, and hash sequence.
// store may be nil to disable caching.
func DefaultSteps(client *index.Client, hasher *hashgen.Hasher, cfg *config.Config, store *cache.Store, logger *slog.Logger) []Step {
	if logger == nil {
		logger = slog.Default()
	}

	probeOpts := []ProbeStepOption{
		WithProbeLogger(logger),
		WithIndexFile(cfg.Indexes),
	}
	if cfg.PreferredIndex != "" {
		probeOpts = append(probeOpts, WithPreferredIndex(cfg.PreferredIndex))
	}
	if store != nil {
		probeOpts = append(probeOpts, WithProbeCache(store, cfg.CacheTTL))
	}
	probe := NewProbeStep(client, cfg.DefaultIndex, probeOpts...)

	hashOpts := []HashStepOption{WithHashLogger(logger)}
	if store != nil {
		hashOpts = append(hashOpts, WithDigestCache(store, cfg.CacheTTL))
	}

	return []Step{
		probe,
		NewAnnotateStep(probe, logger),
		NewHashStep(hasher, hashOpts...),
	}
}
