// Package identity extracts the resolvable identity of a component:
// its structured package coordinate when present, otherwise a ranked list
// of candidate source URLs.
package identity

import (
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/sbom"
)

// Identity is what resolvers dispatch on.
type Identity struct {
	// Coordinate is the parsed package coordinate, nil when the SBOM
	// carried none.
	Coordinate *purl.Coordinate

	// URLs holds candidate source URLs ranked by kind priority:
	// vcs > repository > website > distribution, then anything else in
	// document order.
	URLs []sbom.SourceURL
}

// Empty reports whether the component carries nothing to resolve against.
func (id Identity) Empty() bool {
	return id.Coordinate == nil && len(id.URLs) == 0
}

// kindPriority orders candidate URLs. Lower is tried first.
var kindPriority = map[sbom.RefKind]int{
	sbom.RefVCS:          0,
	sbom.RefRepository:   1,
	sbom.RefWebsite:      2,
	sbom.RefDistribution: 3,
	sbom.RefOther:        4,
}

// Extract is a pure function over one Component. It never fails; a
// component with no coordinate and no URLs yields an empty Identity and
// the pipeline short-circuits to UNKNOWN.
func Extract(c sbom.Component) Identity {
	id := Identity{Coordinate: c.Coordinate}

	if len(c.CandidateSourceURLs) == 0 {
		return id
	}

	// Stable rank: bucket by priority, preserving document order within
	// each bucket, and drop duplicate URLs.
	seen := make(map[string]struct{}, len(c.CandidateSourceURLs))
	for prio := 0; prio <= 4; prio++ {
		for _, u := range c.CandidateSourceURLs {
			if kindPriority[u.Kind] != prio {
				continue
			}
			if _, dup := seen[u.URL]; dup {
				continue
			}
			seen[u.URL] = struct{}{}
			id.URLs = append(id.URLs, u)
		}
	}
	return id
}
