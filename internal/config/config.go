package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/reqhash/internal/model"
)

// Default configuration values.
const (
	// DefaultIndexURL is the fallback package index when -d is not given.
	// This is the public PyPI simple API root.
	DefaultIndexURL = "https://pypi.org/simple"

	// DefaultTimeout is the per-request HTTP timeout. Index probes and
	// file listings are small responses; 30 seconds covers slow mirrors
	// without hanging the run on a dead index.
	DefaultTimeout = 30 * time.Second

	// DefaultAlgorithm is the digest algorithm for generated hash entries.
	// pip's hash-checking mode requires sha256 at minimum.
	DefaultAlgorithm = model.AlgorithmSHA256

	// DefaultUserAgent identifies reqhash in HTTP requests.
	// A descriptive User-Agent lets index operators identify tool traffic.
	DefaultUserAgent = "reqhash/1.0 (+https://github.com/nao1215/reqhash)"

	// DefaultMaxIndexBodySize limits index response bodies (project pages
	// and file listings). Large projects have big file lists; 10MB covers
	// every project on PyPI with room to spare.
	DefaultMaxIndexBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxArtifactSize limits artifact downloads during hashing.
	// Some wheels with bundled native libraries run to hundreds of MB.
	DefaultMaxArtifactSize = 1024 * 1024 * 1024 // 1GB

	// DefaultCacheTTL is how long cached probe results and digests stay
	// fresh. Published artifacts never change their digests, but probe
	// results can (packages get published), so entries expire.
	DefaultCacheTTL = 24 * time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "reqhash"
)

// Config holds all configuration options for reqhash.
// It is populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than global state.
type Config struct {
	// InputFile is the requirements file to read. Required.
	InputFile string

	// OutputFile is the path for the annotated requirements output.
	// When empty, output goes to stdout.
	OutputFile string

	// PreferredIndex is the index probed first for each package.
	// When empty, only the default index is consulted.
	PreferredIndex string

	// DefaultIndex is the fallback index. Packages not present in the
	// preferred index resolve here. Must not be empty.
	DefaultIndex string

	// Algorithm is the digest algorithm for generated hash entries.
	Algorithm string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header for all index requests.
	UserAgent string

	// MaxIndexBodySize limits index response bodies in bytes.
	MaxIndexBodySize int64

	// MaxArtifactSize limits artifact downloads in bytes during hashing.
	MaxArtifactSize int64

	// NoDownload restricts hash generation to digests published in the
	// index file listing. Artifacts whose listing lacks a digest for the
	// configured algorithm are skipped instead of downloaded.
	NoDownload bool

	// EnableCache enables the SQLite probe/digest cache.
	// The default run is stateless; the cache is strictly opt-in.
	EnableCache bool

	// CacheDir is the directory for the cache database.
	// Defaults to the XDG cache directory for reqhash.
	CacheDir string

	// CacheTTL is how long cached entries stay fresh.
	CacheTTL time.Duration

	// ConfigFilePath is the path to the YAML config file.
	// If empty, the tool searches for .reqhash in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Indexes holds per-index and per-package overrides loaded from the
	// config file. Populated by LoadConfigFile.
	Indexes *File

	// ReportFile is the output path for the optional resolution report.
	ReportFile string

	// JSONReport selects JSON format for the resolution report.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown format for the resolution report.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig creates a Config with default values.
// Zero values would be wrong for most fields (timeout, index URL, limits),
// so defaults are set explicitly here and serve as their documentation.
func NewConfig() *Config {
	return &Config{
		DefaultIndex:     DefaultIndexURL,
		Algorithm:        DefaultAlgorithm,
		Timeout:          DefaultTimeout,
		UserAgent:        DefaultUserAgent,
		MaxIndexBodySize: DefaultMaxIndexBodySize,
		MaxArtifactSize:  DefaultMaxArtifactSize,
		CacheDir:         XDGCacheDir(),
		CacheTTL:         DefaultCacheTTL,
	}
}

// XDGCacheDir returns the XDG cache directory for reqhash.
// On Linux: ~/.cache/reqhash
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for reqhash.
// On Linux: ~/.config/reqhash
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after CLI parsing, before any network access, so
// misconfiguration fails fast with a clear message.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return ErrNoInputFile
	}

	if err := validateIndexURL(c.DefaultIndex); err != nil {
		return err
	}
	if c.PreferredIndex != "" {
		if err := validateIndexURL(c.PreferredIndex); err != nil {
			return err
		}
	}

	if !model.SupportedAlgorithm(c.Algorithm) {
		return ErrUnsupportedAlgorithm
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxIndexBodySize < 0 || c.MaxArtifactSize < 0 {
		return ErrInvalidBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// A formatted report without a destination would interleave with the
	// requirements output on stdout, so one of the two needs a file path.
	if (c.JSONReport || c.MarkdownReport || c.ReportFile != "") &&
		c.ReportFile == "" && c.OutputFile == "" {
		return ErrReportDestination
	}

	if c.EnableCache && c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	return nil
}

// validateIndexURL checks that an index URL is absolute http(s).
func validateIndexURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidIndexURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidIndexURL
	}
	if u.Host == "" {
		return ErrInvalidIndexURL
	}
	return nil
}

// NormalizeIndexURL strips the trailing slash from an index URL so that
// project URLs can be built by plain concatenation. Two spellings of the
// same index compare equal after normalization.
func NormalizeIndexURL(raw string) string {
	return strings.TrimRight(raw, "/")
}
