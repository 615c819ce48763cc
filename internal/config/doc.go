// Package config provides configuration management for reqhash.
//
// Configuration flows from three sources, in priority order:
//  1. CLI flags (cmd/reqhash)
//  2. The optional .reqhash YAML file (per-index headers, per-package pins)
//  3. Defaults defined in this package
//
// The Config struct is populated once at startup, validated with
// Config.Validate(), and passed through the application by value reference.
// There is no global configuration state.
package config
