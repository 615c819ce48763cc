// Package index implements the package index client for reqhash.
//
// The client speaks the PyPI "simple" API: PEP 503 HTML project pages and
// their PEP 691 JSON equivalent. It answers two questions for the pipeline:
// whether an index serves a package at all (Probe), and which distribution
// files a package's project page lists, with any digests the index already
// published in the file URL fragments or hash metadata (Files).
//
// The client never interprets package contents; artifact downloads for
// local hashing live in the hashgen package.
package index
