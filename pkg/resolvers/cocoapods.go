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

const cocoapodsBaseURL = "https://trunk.cocoapods.org"

// CocoaPods resolves pods against the CocoaPods trunk API.
type CocoaPods struct {
	fetcher core.Fetcher
	baseURL string
}

func NewCocoaPods(fetcher core.Fetcher) *CocoaPods {
	return &CocoaPods{fetcher: fetcher, baseURL: cocoapodsBaseURL}
}

func (c *CocoaPods) SetBaseURL(u string) { c.baseURL = u }

func (c *CocoaPods) Name() string { return "cocoapods" }

type cocoapodsDocument struct {
	Versions []struct {
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	} `json:"versions"`
	Deprecated bool `json:"deprecated"`
}

func (c *CocoaPods) Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	const op errors.Op = "cocoapods.Resolve"

	endpoint := fmt.Sprintf("%s/api/v1/pods/%s", c.baseURL, coord.Name)
	status, body, err := c.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status == http.StatusNotFound {
		return NotFound(), nil
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("cocoapods returned %d for %s", status, coord.Name))
	}

	var doc cocoapodsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}
	if len(doc.Versions) == 0 {
		return NotFound(), nil
	}

	candidates := versions.Candidates(coord.Version)
	for _, v := range doc.Versions {
		if versions.Matches(v.Name, candidates) {
			return &Release{
				Found:       true,
				Version:     v.Name,
				ReleaseDate: parseTime(v.CreatedAt),
				Deprecated:  doc.Deprecated,
				SourceKind:  SourceRegistry,
			}, nil
		}
	}

	// Trunk lists the most recent version first.
	latest := doc.Versions[0]
	return &Release{
		Found:               true,
		Version:             latest.Name,
		ReleaseDate:         parseTime(latest.CreatedAt),
		Deprecated:          doc.Deprecated,
		SourceKind:          SourceRegistry,
		UsedFallbackVersion: true,
	}, nil
}
