// Package transport implements the request interface the resolvers depend
// on: a rate-limited, retrying HTTP client with response caching. The
// resolution core never retries or paces requests itself; everything of
// that nature lives here.
package transport

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"context"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
)

const (
	// DefaultTimeout bounds each request attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerHour matches the most restrictive upstream in use
	// (the authenticated GitHub API allows 5000 req/hour).
	DefaultRequestsPerHour = 5000

	// DefaultBurst is the limiter burst size.
	DefaultBurst = 10

	// DefaultCacheTTL is how long a cached response stays fresh. Release
	// metadata moves slowly; a run-scoped hour is plenty.
	DefaultCacheTTL = 1 * time.Hour

	// DefaultUserAgent identifies supportscan to upstream APIs.
	DefaultUserAgent = "supportscan/1.0"
)

// Config holds transport configuration.
type Config struct {
	Timeout         time.Duration
	RetryMax        int
	RequestsPerHour int
	Burst           int
	UserAgent       string
	CacheTTL        time.Duration

	// Cache stores responses across requests. Nil selects the in-memory
	// cache; pass a SQLiteCache for persistence across runs.
	Cache Cache

	Logger core.Logger

	// OnRequest is invoked once per Fetch with the request host and
	// whether the response came from cache. Used for metrics.
	OnRequest func(host string, cacheHit bool)
}

// Client is the default Fetcher implementation.
type Client struct {
	http      *retryablehttp.Client
	limiter   *rate.Limiter
	cache     Cache
	cacheTTL  time.Duration
	userAgent string
	logger    core.Logger
	onRequest func(string, bool)
}

var _ core.Fetcher = (*Client)(nil)

// New creates a transport client.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = DefaultRequestsPerHour
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = &core.NopLogger{}
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	rps := float64(cfg.RequestsPerHour) / 3600.0

	return &Client{
		http:      rc,
		limiter:   rate.NewLimiter(rate.Limit(rps), cfg.Burst),
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
		onRequest: cfg.OnRequest,
	}
}

// Fetch performs a GET and returns the status code and body. Network
// failures come back as KindTransport errors; non-2xx statuses are
// returned to the caller to interpret.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (int, []byte, error) {
	const op = "transport.Fetch"

	host := requestHost(rawURL)

	if cached, ok := c.lookup(rawURL); ok {
		c.notify(host, true)
		c.logger.Debug("cache hit: %s", rawURL)
		return cached.StatusCode, cached.Body, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, errors.E(errors.KindTransport, op, "rate limiter wait", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, errors.E(errors.KindParse, op, "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.notify(host, false)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.E(errors.KindTransport, op, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.E(errors.KindTransport, op, "read body", err)
	}

	if resp.StatusCode == http.StatusOK {
		c.store(rawURL, &CachedResponse{
			StatusCode: resp.StatusCode,
			Body:       body,
			FetchedAt:  time.Now(),
		})
	}

	return resp.StatusCode, body, nil
}

// HTTPClient returns an *http.Client whose transport shares this client's
// limiter and cache. Typed API clients (go-github, gitlab client-go) are
// built on top of it so every upstream call obeys the same pacing.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: c.RoundTripper(),
		Timeout:   c.http.HTTPClient.Timeout,
	}
}

// RoundTripper returns the shared limiting/caching transport.
func (c *Client) RoundTripper() http.RoundTripper {
	return &pacedTransport{client: c, base: http.DefaultTransport}
}

func (c *Client) lookup(url string) (*CachedResponse, bool) {
	cached, ok := c.cache.Get(url)
	if !ok {
		return nil, false
	}
	if time.Since(cached.FetchedAt) > c.cacheTTL {
		return nil, false
	}
	return cached, true
}

func (c *Client) store(url string, resp *CachedResponse) {
	if err := c.cache.Set(url, resp); err != nil {
		c.logger.Warn("cache store failed for %s: %v", url, err)
	}
}

func (c *Client) notify(host string, cacheHit bool) {
	if c.onRequest != nil {
		c.onRequest(host, cacheHit)
	}
}

func requestHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Host
}
