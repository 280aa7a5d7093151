package resolvers

import (
	"context"
	"regexp"
	"strings"

	"github.com/exploopio/supportscan/pkg/purl"
)

// hostAliases maps project websites whose code is known to live elsewhere
// onto the repository that actually hosts it.
var hostAliases = []struct {
	substr string
	repo   string
}{
	{"boost.org", "https://github.com/boostorg/boost"},
	{"c-ares", "https://github.com/c-ares/c-ares"},
}

var githubPagesPattern = regexp.MustCompile(`https?://([^/.]+)\.github\.io/([^/\s?#]+)`)

var (
	npmPackagePattern   = regexp.MustCompile(`npmjs\.(?:com|org)/package/((?:@[^/]+/)?[^/\s?#]+)`)
	pypiProjectPattern  = regexp.MustCompile(`pypi\.org/project/([^/\s?#]+)`)
	nugetPackagePattern = regexp.MustCompile(`nuget\.org/packages/([^/\s?#]+)`)
	mavenCoordPattern   = regexp.MustCompile(`(?:mvnrepository\.com/artifact|search\.maven\.org/artifact)/([^/\s?#]+)/([^/\s?#]+)`)
)

// ResolveURL dispatches a source URL to the resolver for its host. URLs
// pointing at registry package pages route back through the matching
// registry resolver; hosts with no API (googlesource.com and anything
// unrecognized) return not-found without any network traffic.
func (r *Registry) ResolveURL(ctx context.Context, rawURL, name, version string) (*Release, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return NotFound(), nil
	}

	for _, alias := range hostAliases {
		if strings.Contains(u, alias.substr) {
			u = alias.repo
			break
		}
	}
	if m := githubPagesPattern.FindStringSubmatch(u); m != nil {
		// user.github.io/project pages almost always mirror
		// github.com/user/project.
		u = "https://github.com/" + m[1] + "/" + m[2]
	}

	switch {
	case strings.Contains(u, "github.com"):
		return r.github.ResolveRepo(ctx, u, version)

	case strings.Contains(u, "gitlab.com"), strings.Contains(u, "gitlab."):
		return r.gitlab.ResolveRepo(ctx, u, version)

	case strings.Contains(u, "bitbucket.org"):
		return r.bitbucket.ResolveRepo(ctx, u, version)

	case strings.Contains(u, "npmjs."):
		pkg := name
		if m := npmPackagePattern.FindStringSubmatch(u); m != nil {
			pkg = m[1]
		}
		return r.resolveAs(ctx, "npm", pkg, version)

	case strings.Contains(u, "pypi.org"):
		pkg := name
		if m := pypiProjectPattern.FindStringSubmatch(u); m != nil {
			pkg = m[1]
		}
		return r.resolveAs(ctx, "pypi", pkg, version)

	case strings.Contains(u, "nuget.org"):
		pkg := name
		if m := nugetPackagePattern.FindStringSubmatch(u); m != nil {
			pkg = m[1]
		}
		return r.resolveAs(ctx, "nuget", pkg, version)

	case strings.Contains(u, "mvnrepository.com"), strings.Contains(u, "search.maven.org"):
		if m := mavenCoordPattern.FindStringSubmatch(u); m != nil {
			return r.ecosystems["maven"].Resolve(ctx, purl.Coordinate{
				Ecosystem: "maven",
				Namespace: m[1],
				Name:      m[2],
				Version:   version,
			})
		}
		return NotFound(), nil

	case strings.Contains(u, "googlesource.com"):
		// Gitiles has no stable JSON API worth querying.
		r.logger.Debug("unsupported host in %q, skipping", rawURL)
		return NotFound(), nil

	default:
		r.logger.Debug("unrecognized host in %q, skipping", rawURL)
		return NotFound(), nil
	}
}

func (r *Registry) resolveAs(ctx context.Context, ecosystem, name, version string) (*Release, error) {
	coord := purl.Coordinate{Ecosystem: ecosystem, Name: name, Version: version}
	if i := strings.LastIndex(name, "/"); i > 0 && strings.HasPrefix(name, "@") {
		coord.Namespace = name[:i]
		coord.Name = name[i+1:]
	}
	return r.ecosystems[ecosystem].Resolve(ctx, coord)
}
