package transport

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// pacedTransport applies the shared rate limiter and response cache to
// requests issued by typed API clients. Only GETs are cached.
type pacedTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c := t.client
	cacheable := req.Method == http.MethodGet
	key := req.URL.String()

	if cacheable {
		if cached, ok := c.lookup(key); ok {
			c.notify(req.URL.Host, true)
			return replay(req, cached), nil
		}
	}

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	c.notify(req.URL.Host, false)
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		c.store(key, &CachedResponse{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header.Clone(),
			FetchedAt:  time.Now(),
		})
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	return resp, nil
}

// replay reconstructs an http.Response from a cached entry.
func replay(req *http.Request, cached *CachedResponse) *http.Response {
	header := cached.Header
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode:    cached.StatusCode,
		Status:        http.StatusText(cached.StatusCode),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
}
