package config

// IndexConfig holds per-index overrides for a single package index.
// Private indexes often need authentication headers; mirrors may need a
// longer timeout expressed here in seconds (YAML-friendly).
type IndexConfig struct {
	// Headers are HTTP headers added to every request to this index,
	// e.g. an Authorization header for a private mirror.
	Headers map[string]string `yaml:"headers,omitempty"`

	// TimeoutSeconds overrides the global HTTP timeout for this index.
	// Zero means use the global timeout.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`
}

// PackageConfig holds per-package overrides.
type PackageConfig struct {
	// Index pins the package to a specific index URL, bypassing the
	// preferred/default probe order. The pinned index is still probed;
	// a package missing from its pinned index is reported as not found.
	Index string `yaml:"index,omitempty"`
}

// File represents the structure of the .reqhash configuration file.
type File struct {
	// Indexes maps index URLs to their overrides.
	Indexes map[string]IndexConfig `yaml:"indexes,omitempty"`

	// Packages maps normalized package names to per-package overrides.
	Packages map[string]PackageConfig `yaml:"packages,omitempty"`

	// Defaults are overrides applied to every index unless the index has
	// its own entry.
	Defaults IndexConfig `yaml:"defaults,omitempty"`
}

// GetIndexConfig returns the overrides for an index URL, merging the
// index-specific entry over the defaults. URLs are compared after
// trailing-slash normalization.
func (f *File) GetIndexConfig(indexURL string) IndexConfig {
	result := f.Defaults
	if len(result.Headers) > 0 {
		// Copy so merging never mutates the shared defaults map.
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	normalized := NormalizeIndexURL(indexURL)
	for key, ic := range f.Indexes {
		if NormalizeIndexURL(key) != normalized {
			continue
		}
		if len(ic.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range ic.Headers {
				result.Headers[k] = v
			}
		}
		if ic.TimeoutSeconds > 0 {
			result.TimeoutSeconds = ic.TimeoutSeconds
		}
		break
	}

	return result
}

// PinnedIndex returns the index URL a package is pinned to, or empty
// string when the package has no pin. The name must be PEP 503 normalized.
func (f *File) PinnedIndex(normalizedName string) string {
	if f == nil {
		return ""
	}
	if pc, ok := f.Packages[normalizedName]; ok {
		return pc.Index
	}
	return ""
}
