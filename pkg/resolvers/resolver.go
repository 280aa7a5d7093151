// Package resolvers locates release metadata for a package identity across
// package registries and repository-hosting providers. One resolver per
// upstream source, all sharing a single contract: the exact declared
// version is attempted before any fallback to "latest", paginated listings
// are traversed fully, and deprecation/archival flags are captured
// verbatim, never inferred.
package resolvers

import (
	"context"
	"time"

	"github.com/exploopio/supportscan/pkg/purl"
)

// SourceKind identifies what kind of upstream produced a release record.
type SourceKind string

const (
	SourceRegistry   SourceKind = "registry"
	SourceRepository SourceKind = "repository"
	SourceNone       SourceKind = "none"
)

// Popularity carries star/fork-like counts from repository hosts. It is a
// secondary signal only, never a primary classification input.
type Popularity struct {
	Stars int `json:"stars"`
	Forks int `json:"forks"`
}

// Release is the outcome of attempting to locate a declared version
// upstream. When Found is false every other field is its zero value.
type Release struct {
	// Found reports whether any usable release data was located.
	Found bool `json:"found"`

	// Version is the upstream version whose data this record carries.
	Version string `json:"version,omitempty"`

	// ReleaseDate may be nil even when Found is true.
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	// Deprecated is the registry-level "this package/version is
	// deprecated" flag, captured verbatim.
	Deprecated bool `json:"deprecated,omitempty"`

	// Archived is the repository-level "archived" flag, captured verbatim.
	Archived bool `json:"archived,omitempty"`

	// UsedFallbackVersion is true when the exact declared version could
	// not be located and a nearest/latest version's data was substituted.
	UsedFallbackVersion bool `json:"used_fallback_version,omitempty"`

	// SourceKind records which class of upstream answered.
	SourceKind SourceKind `json:"source_kind,omitempty"`

	// Popularity is optional and informational.
	Popularity *Popularity `json:"popularity,omitempty"`
}

// NotFound is the canonical empty result.
func NotFound() *Release {
	return &Release{SourceKind: SourceNone}
}

// Resolver resolves a package coordinate against one upstream registry.
type Resolver interface {
	// Name returns the source name ("npm", "pypi", ...).
	Name() string

	// Resolve locates coord's declared version, falling back to the most
	// recent available version (with UsedFallbackVersion set) when the
	// exact version cannot be found after exhausting all pages and all
	// candidate spellings.
	Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error)
}

// RepoResolver resolves a repository URL against one hosting provider.
type RepoResolver interface {
	// Name returns the provider name ("github", "gitlab", ...).
	Name() string

	// ResolveRepo locates the release or tag matching version in the
	// repository at repoURL.
	ResolveRepo(ctx context.Context, repoURL, version string) (*Release, error)
}

// parseTime parses the timestamp formats the upstream APIs emit.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05 MST",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
