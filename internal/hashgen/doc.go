// Package hashgen computes integrity hashes for distribution artifacts.
//
// For each resolved specifier the hasher lists the project's release files,
// selects the ones the version constraint covers, and produces one
// --hash=algorithm:digest entry per artifact. Digests the index already
// published (PEP 503 URL fragments, PEP 691 hash metadata) are trusted and
// reused; anything else is downloaded and hashed locally unless downloads
// are disabled.
package hashgen
