package resolvers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/versions"
)

var githubRepoPattern = regexp.MustCompile(`github\.com[/:]([^/\s]+)/([^/\s?#]+)`)

// GitHub resolves repository URLs against the GitHub REST API. Releases
// are preferred over tags, tags over the latest commit; releases and tags
// are paginated and traversed fully before any fallback.
type GitHub struct {
	client *github.Client
	logger core.Logger
}

// NewGitHub builds a resolver on httpClient. A non-empty token raises the
// unauthenticated rate limit from 60 to 5000 requests per hour.
func NewGitHub(httpClient *http.Client, token string, logger core.Logger) *GitHub {
	hc := httpClient
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		hc = oauth2.NewClient(ctx, src)
	}
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &GitHub{client: github.NewClient(hc), logger: logger}
}

// SetBaseURL points the client at a different API endpoint.
func (g *GitHub) SetBaseURL(u string) error {
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	c, err := g.client.WithEnterpriseURLs(u, u)
	if err != nil {
		return err
	}
	g.client = c
	return nil
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) ResolveRepo(ctx context.Context, repoURL, version string) (*Release, error) {
	const op errors.Op = "github.ResolveRepo"

	owner, repo, ok := splitGitHubURL(repoURL)
	if !ok {
		return NotFound(), nil
	}

	repoInfo, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}

	rel := &Release{
		Found:      true,
		SourceKind: SourceRepository,
		Archived:   repoInfo.GetArchived(),
		Popularity: &Popularity{
			Stars: repoInfo.GetStargazersCount(),
			Forks: repoInfo.GetForksCount(),
		},
	}

	candidates := versions.Candidates(version)

	if found, err := g.findRelease(ctx, owner, repo, candidates, rel); err != nil {
		return nil, errors.E(op, err)
	} else if found {
		return rel, nil
	}

	if found, err := g.findTag(ctx, owner, repo, candidates, rel); err != nil {
		return nil, errors.E(op, err)
	} else if found {
		return rel, nil
	}

	// No release or tag matched; the latest commit date at least bounds
	// how recently the repository has moved.
	g.logger.Debug("github: no release or tag matched %q in %s/%s, using last commit", version, owner, repo)
	if err := g.lastCommit(ctx, owner, repo, rel); err != nil {
		return nil, errors.E(op, err)
	}
	rel.UsedFallbackVersion = true
	return rel, nil
}

func (g *GitHub) findRelease(ctx context.Context, owner, repo string, candidates []string, rel *Release) (bool, error) {
	opt := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := g.client.Repositories.ListReleases(ctx, owner, repo, opt)
		if err != nil {
			return false, errors.E(errors.KindTransport, err)
		}
		for _, r := range releases {
			if versions.Matches(r.GetTagName(), candidates) || versions.Matches(r.GetName(), candidates) {
				rel.Version = r.GetTagName()
				if !r.GetPublishedAt().IsZero() {
					t := r.GetPublishedAt().Time.UTC()
					rel.ReleaseDate = &t
				}
				return true, nil
			}
		}
		if resp.NextPage == 0 {
			return false, nil
		}
		opt.Page = resp.NextPage
	}
}

func (g *GitHub) findTag(ctx context.Context, owner, repo string, candidates []string, rel *Release) (bool, error) {
	opt := &github.ListOptions{PerPage: 100}
	for {
		tags, resp, err := g.client.Repositories.ListTags(ctx, owner, repo, opt)
		if err != nil {
			return false, errors.E(errors.KindTransport, err)
		}
		for _, t := range tags {
			if !versions.Matches(t.GetName(), candidates) {
				continue
			}
			rel.Version = t.GetName()
			sha := t.GetCommit().GetSHA()
			if sha != "" {
				commit, _, err := g.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
				if err != nil {
					return false, errors.E(errors.KindTransport, err)
				}
				if d := commit.GetCommit().GetCommitter().GetDate(); !d.IsZero() {
					ts := d.Time.UTC()
					rel.ReleaseDate = &ts
				}
			}
			return true, nil
		}
		if resp.NextPage == 0 {
			return false, nil
		}
		opt.Page = resp.NextPage
	}
}

func (g *GitHub) lastCommit(ctx context.Context, owner, repo string, rel *Release) error {
	commits, _, err := g.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return errors.E(errors.KindTransport, err)
	}
	if len(commits) == 0 {
		return nil
	}
	if d := commits[0].GetCommit().GetCommitter().GetDate(); !d.IsZero() {
		t := d.Time.UTC()
		rel.ReleaseDate = &t
	}
	return nil
}

func splitGitHubURL(repoURL string) (owner, repo string, ok bool) {
	m := githubRepoPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", false
	}
	repo = strings.TrimSuffix(m[2], ".git")
	repo = strings.TrimSuffix(repo, "/")
	if m[1] == "" || repo == "" {
		return "", "", false
	}
	return m[1], repo, true
}
