package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/versions"
)

const bitbucketAPIURL = "https://api.bitbucket.org"

var bitbucketRepoPattern = regexp.MustCompile(`bitbucket\.org/([^/\s]+)/([^/\s?#]+)`)

// Bitbucket resolves repository URLs against the Bitbucket 2.0 API. The
// API exposes no archived flag, so Archived is always false here.
type Bitbucket struct {
	fetcher core.Fetcher
	baseURL string
}

func NewBitbucket(fetcher core.Fetcher) *Bitbucket {
	return &Bitbucket{fetcher: fetcher, baseURL: bitbucketAPIURL}
}

func (b *Bitbucket) SetBaseURL(u string) { b.baseURL = u }

func (b *Bitbucket) Name() string { return "bitbucket" }

type bitbucketRepo struct {
	UpdatedOn string `json:"updated_on"`
}

type bitbucketTagPage struct {
	Values []struct {
		Name   string `json:"name"`
		Target struct {
			Date string `json:"date"`
		} `json:"target"`
	} `json:"values"`
	Next string `json:"next"`
}

func (b *Bitbucket) ResolveRepo(ctx context.Context, repoURL, version string) (*Release, error) {
	const op errors.Op = "bitbucket.ResolveRepo"

	m := bitbucketRepoPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return NotFound(), nil
	}
	workspace, slug := m[1], strings.TrimSuffix(m[2], ".git")

	status, body, err := b.fetcher.Fetch(ctx, fmt.Sprintf("%s/2.0/repositories/%s/%s", b.baseURL, workspace, slug), nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}
	if status == http.StatusNotFound {
		return NotFound(), nil
	}
	if status != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("bitbucket returned %d for %s/%s", status, workspace, slug))
	}
	var repo bitbucketRepo
	if err := json.Unmarshal(body, &repo); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}

	rel := &Release{Found: true, SourceKind: SourceRepository}

	candidates := versions.Candidates(version)
	next := fmt.Sprintf("%s/2.0/repositories/%s/%s/refs/tags?pagelen=100", b.baseURL, workspace, slug)
	for next != "" {
		status, body, err := b.fetcher.Fetch(ctx, next, nil)
		if err != nil {
			return nil, errors.E(op, errors.KindTransport, err)
		}
		if status != http.StatusOK {
			break
		}
		var page bitbucketTagPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, errors.E(op, errors.KindParse, err)
		}
		for _, tag := range page.Values {
			if versions.Matches(tag.Name, candidates) {
				rel.Version = tag.Name
				rel.ReleaseDate = parseTime(tag.Target.Date)
				return rel, nil
			}
		}
		next = page.Next
	}

	rel.ReleaseDate = parseTime(repo.UpdatedOn)
	rel.UsedFallbackVersion = true
	return rel, nil
}
