// Package core provides shared contracts used across supportscan packages.
package core

import "context"

// Fetcher is the request interface all registry resolvers depend on.
// Implementations own retries, pacing, and caching; callers treat any
// error as "source unavailable" and move on to their next strategy.
type Fetcher interface {
	// Fetch performs a GET against url with the given headers and returns
	// the HTTP status code and response body.
	Fetch(ctx context.Context, url string, headers map[string]string) (statusCode int, body []byte, err error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string, headers map[string]string) (int, []byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	return f(ctx, url, headers)
}
