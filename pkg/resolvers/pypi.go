package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/versions"
)

const pypiBaseURL = "https://pypi.org"

// PyPI resolves packages against the PyPI JSON API.
type PyPI struct {
	fetcher core.Fetcher
	baseURL string
}

func NewPyPI(fetcher core.Fetcher) *PyPI {
	return &PyPI{fetcher: fetcher, baseURL: pypiBaseURL}
}

func (p *PyPI) SetBaseURL(u string) { p.baseURL = u }

func (p *PyPI) Name() string { return "pypi" }

type pypiFile struct {
	UploadTime string `json:"upload_time_iso_8601"`
	Yanked     bool   `json:"yanked"`
}

type pypiDocument struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	Releases map[string][]pypiFile `json:"releases"`
}

func (p *PyPI) Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	const op errors.Op = "pypi.Resolve"

	endpoint := fmt.Sprintf("%s/pypi/%s/json", p.baseURL, coord.Name)
	status, body, err := p.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status == http.StatusNotFound {
		return NotFound(), nil
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("pypi returned %d for %s", status, coord.Name))
	}

	var doc pypiDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}

	chosen, fallback := p.pickRelease(doc, coord.Version)
	if chosen == "" {
		return NotFound(), nil
	}

	rel := &Release{
		Found:               true,
		Version:             chosen,
		SourceKind:          SourceRegistry,
		UsedFallbackVersion: fallback,
	}
	files := doc.Releases[chosen]
	if len(files) > 0 {
		rel.ReleaseDate = parseTime(files[0].UploadTime)
		// A version whose uploads were all yanked has been withdrawn.
		yanked := true
		for _, f := range files {
			if !f.Yanked {
				yanked = false
				break
			}
		}
		rel.Deprecated = yanked
	}
	return rel, nil
}

func (p *PyPI) pickRelease(doc pypiDocument, declared string) (version string, fallback bool) {
	if files, ok := doc.Releases[declared]; ok && declared != "" && len(files) > 0 {
		return declared, false
	}
	candidates := versions.Candidates(declared)
	for v, files := range doc.Releases {
		if len(files) > 0 && versions.Matches(v, candidates) {
			return v, false
		}
	}
	if doc.Info.Version != "" {
		return doc.Info.Version, true
	}
	return "", false
}
