package resolvers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/exploopio/supportscan/pkg/purl"
)

const npmLodashDoc = `{
	"dist-tags": {"latest": "4.17.21"},
	"time": {
		"created": "2012-04-23T16:37:11.912Z",
		"1.0.0": "2013-02-24T19:59:02.000Z",
		"4.17.21": "2021-02-20T15:42:16.891Z"
	},
	"versions": {
		"1.0.0": {},
		"4.17.21": {}
	}
}`

func npmServer(t *testing.T, path, doc string) *NPM {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != path {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	n := NewNPM(rawFetcher())
	n.SetBaseURL(srv.URL)
	return n
}

func TestNPMExactVersionBeforeLatest(t *testing.T) {
	n := npmServer(t, "/lodash", npmLodashDoc)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "npm", Name: "lodash", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.Found {
		t.Fatal("expected release to be found")
	}
	if rel.UsedFallbackVersion {
		t.Error("exact version must not be marked as fallback")
	}
	if !sameDay(rel.ReleaseDate, mustDate(t, "2013-02-24")) {
		t.Errorf("got release date %v, want the 1.0.0 date, not latest", rel.ReleaseDate)
	}
}

func TestNPMFallsBackToLatest(t *testing.T) {
	n := npmServer(t, "/lodash", npmLodashDoc)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "npm", Name: "lodash", Version: "9.9.9"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.UsedFallbackVersion {
		t.Error("unknown version should fall back to latest")
	}
	if rel.Version != "4.17.21" {
		t.Errorf("got version %q, want dist-tags latest", rel.Version)
	}
	if !sameDay(rel.ReleaseDate, mustDate(t, "2021-02-20")) {
		t.Errorf("got release date %v, want the latest version's date", rel.ReleaseDate)
	}
}

func TestNPMDeprecatedCapturedVerbatim(t *testing.T) {
	doc := `{
		"dist-tags": {"latest": "1.2.0"},
		"time": {"1.2.0": "2018-06-01T00:00:00.000Z"},
		"versions": {"1.2.0": {"deprecated": "use something else"}}
	}`
	n := npmServer(t, "/request", doc)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "npm", Name: "request", Version: "1.2.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.Deprecated {
		t.Error("deprecation notice on the resolved version must be carried through")
	}
}

func TestNPMScopedPackagePath(t *testing.T) {
	n := npmServer(t, "/@babel%2Fcore", `{
		"dist-tags": {"latest": "7.24.0"},
		"time": {"7.24.0": "2024-02-28T10:00:00.000Z"},
		"versions": {"7.24.0": {}}
	}`)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{
		Ecosystem: "npm", Namespace: "@babel", Name: "core", Version: "7.24.0",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.Found || rel.UsedFallbackVersion {
		t.Errorf("scoped package not resolved exactly: %+v", rel)
	}
}

func TestNPMNotFound(t *testing.T) {
	n := npmServer(t, "/other", `{}`)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "npm", Name: "missing", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rel.Found {
		t.Error("404 must resolve to not-found, not an error")
	}
}
