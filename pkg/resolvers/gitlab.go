package resolvers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/versions"
)

var gitlabRepoPattern = regexp.MustCompile(`gitlab\.[^/\s]+/([^\s?#]+?)(?:\.git)?/?$`)

// GitLab resolves repository URLs against the GitLab REST API, covering
// both gitlab.com and self-hosted instances.
type GitLab struct {
	client *gitlab.Client
	logger core.Logger
}

func NewGitLab(httpClient *http.Client, token, baseURL string, logger core.Logger) (*GitLab, error) {
	opts := []gitlab.ClientOptionFunc{gitlab.WithHTTPClient(httpClient)}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, errors.E(errors.Op("gitlab.New"), err)
	}
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &GitLab{client: client, logger: logger}, nil
}

func (g *GitLab) Name() string { return "gitlab" }

func (g *GitLab) ResolveRepo(ctx context.Context, repoURL, version string) (*Release, error) {
	const op errors.Op = "gitlab.ResolveRepo"

	path, ok := splitGitLabURL(repoURL)
	if !ok {
		return NotFound(), nil
	}

	project, _, err := g.client.Projects.GetProject(path, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, err)
	}

	rel := &Release{
		Found:      true,
		SourceKind: SourceRepository,
		Archived:   project.Archived,
		Popularity: &Popularity{
			Stars: project.StarCount,
			Forks: project.ForksCount,
		},
	}

	candidates := versions.Candidates(version)
	opt := &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		releases, resp, err := g.client.Releases.ListReleases(path, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errors.E(op, errors.KindTransport, err)
		}
		for _, r := range releases {
			if versions.Matches(r.TagName, candidates) || versions.Matches(r.Name, candidates) {
				rel.Version = r.TagName
				if r.ReleasedAt != nil {
					t := r.ReleasedAt.UTC()
					rel.ReleaseDate = &t
				}
				return rel, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	g.logger.Debug("gitlab: no release matched %q in %s, using last activity", version, path)
	if project.LastActivityAt != nil {
		t := project.LastActivityAt.UTC()
		rel.ReleaseDate = &t
	}
	rel.UsedFallbackVersion = true
	return rel, nil
}

func splitGitLabURL(repoURL string) (string, bool) {
	m := gitlabRepoPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", false
	}
	path := strings.Trim(m[1], "/")
	if !strings.Contains(path, "/") {
		return "", false
	}
	return path, true
}
