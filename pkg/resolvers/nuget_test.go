package resolvers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/exploopio/supportscan/pkg/purl"
)

func TestNuGetSentinelPublishedUsesCommitTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [{
				"items": [{
					"commitTimeStamp": "2020-03-17T09:30:00.000Z",
					"catalogEntry": {"version": "2.1.0", "published": "1900-01-01T00:00:00+00:00"}
				}]
			}]
		}`)
	}))
	defer srv.Close()

	n := NewNuGet(rawFetcher())
	n.SetBaseURL(srv.URL)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "nuget", Name: "Unlisted.Package", Version: "2.1.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !sameDay(rel.ReleaseDate, mustDate(t, "2020-03-17")) {
		t.Errorf("got %v, want the commit timestamp instead of the 1900 placeholder", rel.ReleaseDate)
	}
	if rel.UsedFallbackVersion {
		t.Error("exact version was present, fallback must not be flagged")
	}
}

func TestNuGetTraversesAllPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v3/registration5-semver1/newtonsoft.json/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"items": [
				{"@id": "%s/page/0"},
				{"@id": "%s/page/1"}
			]
		}`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/page/0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{
			"commitTimeStamp": "2011-05-01T00:00:00Z",
			"catalogEntry": {"version": "4.0.1", "published": "2011-04-22T00:00:00+00:00"}
		}]}`)
	})
	mux.HandleFunc("/page/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{
			"commitTimeStamp": "2023-03-09T00:00:00Z",
			"catalogEntry": {"version": "13.0.3", "published": "2023-03-08T07:42:54.647+00:00"}
		}]}`)
	})

	n := NewNuGet(rawFetcher())
	n.SetBaseURL(srv.URL)

	// Old version lives on the first externally stored page.
	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "nuget", Name: "Newtonsoft.Json", Version: "4.0.1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rel.UsedFallbackVersion || !sameDay(rel.ReleaseDate, mustDate(t, "2011-04-22")) {
		t.Errorf("old version not found across pages: %+v", rel)
	}

	// Unknown version falls back to the newest leaf on the last page.
	rel, err = n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "nuget", Name: "Newtonsoft.Json", Version: "99.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.UsedFallbackVersion || rel.Version != "13.0.3" {
		t.Errorf("fallback should use the most recent version: %+v", rel)
	}
}

func TestNuGetDeprecationFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [{
				"items": [{
					"commitTimeStamp": "2019-01-10T00:00:00Z",
					"catalogEntry": {
						"version": "1.0.0",
						"published": "2019-01-09T00:00:00+00:00",
						"deprecation": {"reasons": ["Legacy"]}
					}
				}]
			}]
		}`)
	}))
	defer srv.Close()

	n := NewNuGet(rawFetcher())
	n.SetBaseURL(srv.URL)

	rel, err := n.Resolve(context.Background(), purl.Coordinate{Ecosystem: "nuget", Name: "Old.Library", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.Deprecated {
		t.Error("catalog deprecation must be carried through")
	}
}
