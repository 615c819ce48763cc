package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name the exact field that is
// wrong. Package-level sentinel errors let callers use errors.Is() for
// programmatic handling while keeping human-readable messages.
var (
	// ErrNoInputFile is returned when no requirements file path is given.
	ErrNoInputFile = errors.New("no input file specified: provide a requirements file path")

	// ErrInvalidIndexURL is returned when an index URL is not an absolute
	// http or https URL.
	ErrInvalidIndexURL = errors.New("invalid index URL: must be an absolute http(s) URL")

	// ErrUnsupportedAlgorithm is returned when the digest algorithm is not
	// one of the supported names.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm: use sha256, sha384, sha512, or blake2b_256")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBodySize is returned when a response size limit is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidBodySize = errors.New("invalid body size limit: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified for the resolution report.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrReportDestination is returned when a resolution report is requested
	// but both the report and the requirements output would go to stdout.
	ErrReportDestination = errors.New("report needs a destination: use --report PATH or write requirements with -o")

	// ErrInvalidCacheTTL is returned when the cache is enabled with a
	// non-positive freshness window.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive when the cache is enabled")
)
