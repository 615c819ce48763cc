// Package model defines the core data structures used throughout reqhash.
//
// This package contains the following main types:
//   - Specifier: A single requirements-file entry (name, extras, constraint)
//   - HashEntry: A validated algorithm:digest integrity token
//   - Document: The ordered requirements file with passthrough lines
//   - Summary: A condensed resolution summary for report output
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (reqfile, index, hashgen, pipeline, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// cache storage.
package model
