package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
)

const mavenSearchURL = "https://search.maven.org"

// Maven resolves artifacts against the Maven Central search API. The GAV
// core is queried first so the exact declared version's timestamp wins;
// only when that version does not exist does the artifact's latest
// version stand in.
type Maven struct {
	fetcher core.Fetcher
	baseURL string
}

func NewMaven(fetcher core.Fetcher) *Maven {
	return &Maven{fetcher: fetcher, baseURL: mavenSearchURL}
}

func (m *Maven) SetBaseURL(u string) { m.baseURL = u }

func (m *Maven) Name() string { return "maven" }

type mavenResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			Version       string `json:"v"`
			LatestVersion string `json:"latestVersion"`
			Timestamp     int64  `json:"timestamp"`
		} `json:"docs"`
	} `json:"response"`
}

func (m *Maven) Resolve(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	const op errors.Op = "maven.Resolve"

	group, artifact := coord.Namespace, coord.Name
	if group == "" {
		return NotFound(), nil
	}

	if coord.Version != "" {
		query := fmt.Sprintf("g:%q AND a:%q AND v:%q", group, artifact, coord.Version)
		doc, err := m.search(ctx, query, "gav", 1)
		if err != nil {
			return nil, errors.E(op, err)
		}
		if len(doc.Response.Docs) > 0 {
			d := doc.Response.Docs[0]
			return &Release{
				Found:       true,
				Version:     coord.Version,
				ReleaseDate: millisTime(d.Timestamp),
				SourceKind:  SourceRegistry,
			}, nil
		}
	}

	query := fmt.Sprintf("g:%q AND a:%q", group, artifact)
	doc, err := m.search(ctx, query, "", 1)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if len(doc.Response.Docs) == 0 {
		return NotFound(), nil
	}
	d := doc.Response.Docs[0]
	return &Release{
		Found:               true,
		Version:             d.LatestVersion,
		ReleaseDate:         millisTime(d.Timestamp),
		SourceKind:          SourceRegistry,
		UsedFallbackVersion: coord.Version != "",
	}, nil
}

func (m *Maven) search(ctx context.Context, query, coreName string, rows int) (*mavenResponse, error) {
	const op errors.Op = "maven.search"

	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", fmt.Sprint(rows))
	params.Set("wt", "json")
	if coreName != "" {
		params.Set("core", coreName)
	}
	endpoint := fmt.Sprintf("%s/solrsearch/select?%s", m.baseURL, params.Encode())

	status, body, err := m.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("maven search returned %d", status))
	}
	var doc mavenResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}
	return &doc, nil
}

func millisTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
