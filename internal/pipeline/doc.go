// Package pipeline orchestrates the processing steps applied to a
// requirements document: probing indexes for package availability,
// annotating specifiers with the index that hosts them, and computing
// integrity hashes. Steps run strictly in sequence over the shared
// document; per-package failures become document warnings while critical
// failures abort the run.
package pipeline
