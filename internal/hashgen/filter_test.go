package hashgen

import (
	"testing"

	"github.com/nao1215/reqhash/internal/index"
	"github.com/nao1215/reqhash/internal/model"
)

// TestExtractVersion tests version extraction from distribution filenames.
func TestExtractVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		filename    string
		pkg         string
		wantVersion string
		wantOK      bool
	}{
		{
			name:        "wheel",
			filename:    "requests-2.31.0-py3-none-any.whl",
			pkg:         "requests",
			wantVersion: "2.31.0",
			wantOK:      true,
		},
		{
			name:        "wheel with underscored name",
			filename:    "flask_sqlalchemy-3.1.1-py3-none-any.whl",
			pkg:         "flask-sqlalchemy",
			wantVersion: "3.1.1",
			wantOK:      true,
		},
		{
			name:        "sdist tar.gz",
			filename:    "requests-2.31.0.tar.gz",
			pkg:         "requests",
			wantVersion: "2.31.0",
			wantOK:      true,
		},
		{
			name:        "sdist zip",
			filename:    "requests-2.31.0.zip",
			pkg:         "requests",
			wantVersion: "2.31.0",
			wantOK:      true,
		},
		{
			name:        "sdist with hyphenated name",
			filename:    "zope.interface-5.4.0.tar.gz",
			pkg:         "zope-interface",
			wantVersion: "5.4.0",
			wantOK:      true,
		},
		{
			name:     "different package",
			filename: "urllib3-2.0.0.tar.gz",
			pkg:      "requests",
			wantOK:   false,
		},
		{
			name:     "unrecognized extension",
			filename: "requests-2.31.0.rpm",
			pkg:      "requests",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		tt := tt // capture range variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			version, ok := extractVersion(tt.filename, tt.pkg)
			if ok != tt.wantOK {
				t.Fatalf("extractVersion(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if ok && version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
		})
	}
}

// TestMatchingFiles tests constraint-based release filtering.
func TestMatchingFiles(t *testing.T) {
	t.Parallel()

	files := []index.ReleaseFile{
		{Filename: "requests-2.30.0.tar.gz"},
		{Filename: "requests-2.31.0.tar.gz"},
		{Filename: "requests-2.31.0-py3-none-any.whl"},
		{Filename: "requests-2.32.0.tar.gz"},
		{Filename: "unrelated-1.0.tar.gz"},
	}

	tests := []struct {
		name      string
		specifier string
		wantFiles []string
	}{
		{
			name:      "exact pin selects all artifacts of the release",
			specifier: "requests==2.31.0",
			wantFiles: []string{"requests-2.31.0.tar.gz", "requests-2.31.0-py3-none-any.whl"},
		},
		{
			name:      "unpinned matches every release",
			specifier: "requests",
			wantFiles: []string{"requests-2.30.0.tar.gz", "requests-2.31.0.tar.gz", "requests-2.31.0-py3-none-any.whl", "requests-2.32.0.tar.gz"},
		},
		{
			name:      "lower bound",
			specifier: "requests>=2.31.0",
			wantFiles: []string{"requests-2.31.0.tar.gz", "requests-2.31.0-py3-none-any.whl", "requests-2.32.0.tar.gz"},
		},
		{
			name:      "bounded range",
			specifier: "requests>=2.30.0,<2.32.0",
			wantFiles: []string{"requests-2.30.0.tar.gz", "requests-2.31.0.tar.gz", "requests-2.31.0-py3-none-any.whl"},
		},
		{
			name:      "compatible release",
			specifier: "requests~=2.31.0",
			wantFiles: []string{"requests-2.31.0.tar.gz", "requests-2.31.0-py3-none-any.whl"},
		},
		{
			name:      "exclusion",
			specifier: "requests>=2.30.0,!=2.31.0",
			wantFiles: []string{"requests-2.30.0.tar.gz", "requests-2.32.0.tar.gz"},
		},
	}

	for _, tt := range tests {
		tt := tt // capture range variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, err := model.ParseSpecifier(tt.specifier, 1)
			if err != nil {
				t.Fatalf("ParseSpecifier returned error: %v", err)
			}

			matched := MatchingFiles(files, spec)
			if len(matched) != len(tt.wantFiles) {
				t.Fatalf("got %d files %v, want %d", len(matched), filenames(matched), len(tt.wantFiles))
			}
			for i, want := range tt.wantFiles {
				if matched[i].Filename != want {
					t.Errorf("file %d = %q, want %q", i, matched[i].Filename, want)
				}
			}
		})
	}
}

// filenames extracts filenames for error messages.
func filenames(files []index.ReleaseFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return names
}

// TestEqualVersionText tests lenient exact-pin comparison.
func TestEqualVersionText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: "2.31.0", b: "2.31.0", want: true},
		{name: "trailing zero", a: "2.31", b: "2.31.0", want: true},
		{name: "case", a: "1.0rc1", b: "1.0RC1", want: true},
		{name: "different", a: "2.31.0", b: "2.31.1", want: false},
	}

	for _, tt := range tests {
		tt := tt // capture range variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := equalVersionText(tt.a, tt.b); got != tt.want {
				t.Errorf("equalVersionText(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
