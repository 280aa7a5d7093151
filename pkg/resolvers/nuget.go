package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/versions"
)

const nugetBaseURL = "https://api.nuget.org"

// nugetSentinelPrefix marks NuGet's placeholder for unlisted packages.
// Entries published at this date carry no real publication time and the
// catalog commit timestamp is used instead.
const nugetSentinelPrefix = "1900-01-01"

// NuGet resolves packages against the NuGet V3 registration API. The
// registration index is paginated; every page is traversed so that old
// versions of long-lived packages are still found.
type NuGet struct {
	fetcher core.Fetcher
	baseURL string
}

func NewNuGet(fetcher core.Fetcher) *NuGet {
	return &NuGet{fetcher: fetcher, baseURL: nugetBaseURL}
}

func (n *NuGet) SetBaseURL(u string) { n.baseURL = u }

func (n *NuGet) Name() string { return "nuget" }

type nugetLeaf struct {
	CommitTimeStamp string `json:"commitTimeStamp"`
	CatalogEntry    struct {
		Version     string         `json:"version"`
		Published   string         `json:"published"`
		Deprecation map[string]any `json:"deprecation"`
	} `json:"catalogEntry"`
}

type nugetPage struct {
	ID    string      `json:"@id"`
	Items []nugetLeaf `json:"items"`
}

type nugetIndex struct {
	Items []nugetPage `json:"items"`
}

func (n *NuGet) Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	const op errors.Op = "nuget.Resolve"

	endpoint := fmt.Sprintf("%s/v3/registration5-semver1/%s/index.json", n.baseURL, strings.ToLower(coord.Name))
	status, body, err := n.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status == http.StatusNotFound {
		return NotFound(), nil
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("nuget returned %d for %s", status, coord.Name))
	}

	var index nugetIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}

	candidates := versions.Candidates(coord.Version)
	var exact, latest *nugetLeaf

	for i := range index.Items {
		page := index.Items[i]
		leaves := page.Items
		if len(leaves) == 0 && page.ID != "" {
			// Inlined items are absent for large packages; fetch the page.
			leaves, err = n.fetchPage(ctx, page.ID)
			if err != nil {
				return nil, err
			}
		}
		for j := range leaves {
			leaf := leaves[j]
			v := leaf.CatalogEntry.Version
			if exact == nil && (strings.EqualFold(v, coord.Version) || versions.Matches(v, candidates)) {
				exact = &leaf
			}
			// Pages and items arrive in ascending version order, so the
			// final leaf is the most recent version.
			latest = &leaf
		}
	}

	chosen := exact
	fallback := false
	if chosen == nil {
		chosen = latest
		fallback = true
	}
	if chosen == nil {
		return NotFound(), nil
	}

	return &Release{
		Found:               true,
		Version:             chosen.CatalogEntry.Version,
		ReleaseDate:         nugetPublished(chosen),
		Deprecated:          len(chosen.CatalogEntry.Deprecation) > 0,
		SourceKind:          SourceRegistry,
		UsedFallbackVersion: fallback,
	}, nil
}

func (n *NuGet) fetchPage(ctx context.Context, pageURL string) ([]nugetLeaf, error) {
	const op errors.Op = "nuget.fetchPage"

	status, body, err := n.fetcher.Fetch(ctx, pageURL, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("nuget page returned %d", status))
	}
	var page nugetPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}
	return page.Items, nil
}

func nugetPublished(leaf *nugetLeaf) *time.Time {
	published := leaf.CatalogEntry.Published
	if strings.HasPrefix(published, nugetSentinelPrefix) {
		return parseTime(leaf.CommitTimeStamp)
	}
	return parseTime(published)
}
