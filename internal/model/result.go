package model

// IndexResult is the outcome of probing one package against the configured
// indexes. It is produced by the probe step and consumed immediately by the
// annotate step; it is not persisted.
type IndexResult struct {
	// Package is the normalized package name that was probed.
	Package string

	// Found reports whether any index served the package.
	Found bool

	// IndexURL is the index that served the package, empty when not found.
	IndexURL string

	// Preferred reports whether IndexURL is the preferred index rather
	// than the default.
	Preferred bool
}
