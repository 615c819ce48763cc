package index

import "errors"

// Index probe errors.
// The distinction matters for control flow: ErrPackageNotFound is a
// per-package condition that the pipeline reports and skips, while
// ErrIndexUnavailable means the index itself cannot answer and the run
// cannot trust any negative result from it.
var (
	// ErrPackageNotFound is returned when the index answers but has no
	// project page for the package.
	ErrPackageNotFound = errors.New("package not found in index")

	// ErrIndexUnavailable is returned when the index cannot be reached or
	// answers with a server error.
	ErrIndexUnavailable = errors.New("package index unavailable")

	// ErrUnexpectedResponse is returned when the index answers with a
	// content type or body this client cannot interpret.
	ErrUnexpectedResponse = errors.New("unexpected index response")
)
