package resolvers

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/exploopio/supportscan/pkg/core"
)

// rawFetcher hits the test server directly, without pacing or caching.
func rawFetcher() core.Fetcher {
	return core.FetcherFunc(func(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, nil, err
		}
		return resp.StatusCode, body, nil
	})
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}

func sameDay(ts *time.Time, want time.Time) bool {
	if ts == nil {
		return false
	}
	y1, m1, d1 := ts.Date()
	y2, m2, d2 := want.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
