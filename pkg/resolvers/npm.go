package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/versions"
)

const npmRegistryURL = "https://registry.npmjs.org"

// NPM resolves packages against the public npm registry.
type NPM struct {
	fetcher core.Fetcher
	baseURL string
}

func NewNPM(fetcher core.Fetcher) *NPM {
	return &NPM{fetcher: fetcher, baseURL: npmRegistryURL}
}

// SetBaseURL overrides the registry endpoint.
func (n *NPM) SetBaseURL(u string) { n.baseURL = u }

func (n *NPM) Name() string { return "npm" }

type npmDocument struct {
	DistTags map[string]string `json:"dist-tags"`
	Time     map[string]string `json:"time"`
	Versions map[string]struct {
		Deprecated any `json:"deprecated"`
	} `json:"versions"`
}

func (n *NPM) Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	const op errors.Op = "npm.Resolve"

	name := coord.Name
	if coord.Namespace != "" {
		// Scoped packages keep the @scope prefix but the slash must be
		// percent-encoded in the registry path.
		name = coord.Namespace + "/" + coord.Name
	}
	endpoint := fmt.Sprintf("%s/%s", n.baseURL, url.PathEscape(name))

	status, body, err := n.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status == http.StatusNotFound {
		return NotFound(), nil
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("registry returned %d for %s", status, name))
	}

	var doc npmDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}

	chosen, fallback := pickVersion(doc, coord.Version)
	if chosen == "" {
		return NotFound(), nil
	}

	rel := &Release{
		Found:               true,
		Version:             chosen,
		SourceKind:          SourceRegistry,
		UsedFallbackVersion: fallback,
		ReleaseDate:         parseTime(doc.Time[chosen]),
	}
	if v, ok := doc.Versions[chosen]; ok && v.Deprecated != nil {
		rel.Deprecated = true
	}
	return rel, nil
}

// pickVersion prefers the exact declared version over any candidate
// spelling, and only then the dist-tags latest.
func pickVersion(doc npmDocument, declared string) (version string, fallback bool) {
	if _, ok := doc.Versions[declared]; ok && declared != "" {
		return declared, false
	}
	candidates := versions.Candidates(declared)
	for v := range doc.Versions {
		if versions.Matches(v, candidates) {
			return v, false
		}
	}
	if latest := doc.DistTags["latest"]; latest != "" {
		return latest, true
	}
	return "", false
}
