package resolvers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/purl"
)

// Config wires a Registry. Fetcher handles the plain JSON registries;
// HTTPClient backs the typed GitHub and GitLab clients so they share the
// same pacing and caching.
type Config struct {
	Fetcher    core.Fetcher
	HTTPClient *http.Client

	GitHubToken string
	GitLabToken string

	Logger core.Logger
}

// Registry routes resolution requests to the resolver for a coordinate's
// ecosystem or a URL's hosting provider.
type Registry struct {
	ecosystems map[string]Resolver

	github    *GitHub
	gitlab    *GitLab
	bitbucket *Bitbucket

	logger core.Logger
}

func NewRegistry(cfg *Config) (*Registry, error) {
	if cfg == nil || cfg.Fetcher == nil {
		return nil, errors.E(errors.Op("resolvers.NewRegistry"), errors.KindMalformedInput, "fetcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = core.NewNopLogger()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	gl, err := NewGitLab(httpClient, cfg.GitLabToken, "", logger)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		ecosystems: make(map[string]Resolver),
		github:     NewGitHub(httpClient, cfg.GitHubToken, logger),
		gitlab:     gl,
		bitbucket:  NewBitbucket(cfg.Fetcher),
		logger:     logger,
	}
	for _, res := range []Resolver{
		NewNPM(cfg.Fetcher),
		NewPyPI(cfg.Fetcher),
		NewNuGet(cfg.Fetcher),
		NewMaven(cfg.Fetcher),
		NewCocoaPods(cfg.Fetcher),
	} {
		r.ecosystems[res.Name()] = res
	}
	return r, nil
}

// Register adds or replaces the resolver for an ecosystem. Mainly useful
// in tests.
func (r *Registry) Register(res Resolver) {
	r.ecosystems[res.Name()] = res
}

// ResolveCoordinate resolves a package coordinate through its ecosystem's
// registry. GitHub-typed coordinates route to the repository resolver. An
// ecosystem with no resolver is not an error; the caller falls back to
// source URLs.
func (r *Registry) ResolveCoordinate(ctx context.Context, coord purl.Coordinate) (*Release, error) {
	if coord.Ecosystem == "github" {
		if coord.Namespace == "" {
			return NotFound(), nil
		}
		repoURL := fmt.Sprintf("https://github.com/%s/%s", coord.Namespace, coord.Name)
		return r.github.ResolveRepo(ctx, repoURL, coord.Version)
	}
	res, ok := r.ecosystems[coord.Ecosystem]
	if !ok {
		r.logger.Debug("no registry resolver for ecosystem %q", coord.Ecosystem)
		return NotFound(), nil
	}
	return res.Resolve(ctx, coord)
}
