package hashgen

import (
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/nao1215/reqhash/internal/index"
	"github.com/nao1215/reqhash/internal/model"
)

// sdistExtensions are the source distribution suffixes seen on indexes,
// longest first so ".tar.gz" wins over ".gz".
var sdistExtensions = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".zip", ".tar"}

// MatchingFiles selects the release files a specifier's constraint covers.
// Files whose version cannot be extracted from the filename are skipped;
// an unpinned specifier matches every file with a recognizable version.
func MatchingFiles(files []index.ReleaseFile, spec *model.Specifier) []index.ReleaseFile {
	matched := make([]index.ReleaseFile, 0, len(files))
	for _, f := range files {
		version, ok := extractVersion(f.Filename, spec.Normalized)
		if !ok {
			continue
		}
		if matchesConstraint(version, spec) {
			matched = append(matched, f)
		}
	}
	return matched
}

// extractVersion pulls the release version out of a distribution filename.
//
// Wheels follow PEP 427: name-version-buildtag?-python-abi-platform.whl,
// so the version is the second hyphen-separated field. Source distributions
// are name-version followed by an archive extension, where the name portion
// may itself contain hyphens.
func extractVersion(filename, normalizedName string) (string, bool) {
	lower := strings.ToLower(filename)

	if strings.HasSuffix(lower, ".whl") || strings.HasSuffix(lower, ".egg") {
		parts := strings.Split(strings.TrimSuffix(filename, filename[strings.LastIndex(filename, "."):]), "-")
		if len(parts) < 2 {
			return "", false
		}
		if model.NormalizeName(parts[0]) != normalizedName {
			return "", false
		}
		return parts[1], true
	}

	for _, ext := range sdistExtensions {
		if !strings.HasSuffix(lower, ext) {
			continue
		}
		stem := filename[:len(filename)-len(ext)]
		// Split name from version at the last hyphen; sdist names keep
		// their original separators, so compare normalized.
		idx := strings.LastIndex(stem, "-")
		if idx <= 0 {
			return "", false
		}
		if model.NormalizeName(stem[:idx]) != normalizedName {
			return "", false
		}
		return stem[idx+1:], true
	}

	return "", false
}

// matchesConstraint reports whether a release version satisfies the
// specifier's constraint.
//
// Exact pins ("==", "===") are compared textually first, which handles
// PEP 440 forms (epochs, local versions) that a generic version parser
// rejects. Other operators go through hashicorp/go-version, with the
// PEP 440 compatible-release operator "~=" translated to the equivalent
// pessimistic constraint. Versions that fail to parse under a non-exact
// constraint are excluded rather than guessed at.
func matchesConstraint(version string, spec *model.Specifier) bool {
	constraint := strings.TrimSpace(spec.Constraint)
	if constraint == "" {
		return true
	}

	if spec.IsPinned() {
		return equalVersionText(version, spec.PinnedVersion())
	}

	v, err := goversion.NewVersion(version)
	if err != nil {
		return false
	}

	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if strings.HasPrefix(clause, "~=") {
			clause = "~>" + strings.TrimSpace(strings.TrimPrefix(clause, "~="))
		}
		c, err := goversion.NewConstraint(clause)
		if err != nil {
			return false
		}
		if !c.Check(v) {
			return false
		}
	}
	return true
}

// equalVersionText compares two version strings with PEP 440 lenience:
// case-insensitive, and a trailing ".0" run does not distinguish versions
// ("2.31" pins "2.31.0").
func equalVersionText(a, b string) bool {
	na, nb := canonicalVersionText(a), canonicalVersionText(b)
	return na == nb
}

// canonicalVersionText lowercases a version and trims trailing zero
// segments.
func canonicalVersionText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	return s
}
