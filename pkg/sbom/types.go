// Package sbom loads CycloneDX and SPDX documents and normalizes their
// entries into the uniform Component record the analysis pipeline runs on.
package sbom

import "github.com/exploopio/supportscan/pkg/purl"

// RefKind tags a candidate source-location URL.
type RefKind string

const (
	RefVCS          RefKind = "vcs"
	RefRepository   RefKind = "repository"
	RefWebsite      RefKind = "website"
	RefDistribution RefKind = "distribution"
	RefOther        RefKind = "other"
)

// SourceURL is one external reference attached to a component.
type SourceURL struct {
	URL  string  `json:"url"`
	Kind RefKind `json:"kind"`
}

// Component is one normalized SBOM entry. It is created once at
// normalization time and never mutated afterwards; each pipeline run owns
// its component exclusively.
type Component struct {
	// Name is the component name as written in the SBOM. Never empty for
	// a well-formed document.
	Name string `json:"name"`

	// DeclaredVersion is the version exactly as declared in the SBOM.
	// Empty only when the SBOM omitted it, in which case resolution is
	// skipped and the component classifies as UNKNOWN.
	DeclaredVersion string `json:"declared_version"`

	// Coordinate is the structured package identity parsed from the
	// component's purl, when one was present and parseable.
	Coordinate *purl.Coordinate `json:"coordinate,omitempty"`

	// CandidateSourceURLs lists external references in document order.
	CandidateSourceURLs []SourceURL `json:"candidate_source_urls,omitempty"`
}

// SupportProperties is the per-component enrichment written back into the
// document: properties for CycloneDX, annotations for SPDX.
type SupportProperties struct {
	Level            string
	EndOfLife        string
	Confidence       string
	LastReleaseDate  string
	DaysSinceRelease string
	Timestamp        string
}
