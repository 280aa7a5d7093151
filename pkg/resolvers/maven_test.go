package resolvers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/exploopio/supportscan/pkg/purl"
)

func TestMavenExactGAVQueryWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if r.URL.Query().Get("core") == "gav" && strings.Contains(q, `v:"31.1-jre"`) {
			fmt.Fprint(w, `{"response": {"numFound": 1, "docs": [{"v": "31.1-jre", "timestamp": 1646092800000}]}}`)
			return
		}
		fmt.Fprint(w, `{"response": {"numFound": 1, "docs": [{"latestVersion": "33.0.0-jre", "timestamp": 1703980800000}]}}`)
	}))
	defer srv.Close()

	m := NewMaven(rawFetcher())
	m.SetBaseURL(srv.URL)

	rel, err := m.Resolve(context.Background(), purl.Coordinate{
		Ecosystem: "maven", Namespace: "com.google.guava", Name: "guava", Version: "31.1-jre",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rel.UsedFallbackVersion {
		t.Error("exact GAV hit must not be marked fallback")
	}
	if !sameDay(rel.ReleaseDate, mustDate(t, "2022-03-01")) {
		t.Errorf("got %v, want the GAV timestamp", rel.ReleaseDate)
	}
}

func TestMavenFallsBackToLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("core") == "gav" {
			fmt.Fprint(w, `{"response": {"numFound": 0, "docs": []}}`)
			return
		}
		fmt.Fprint(w, `{"response": {"numFound": 1, "docs": [{"latestVersion": "2.17.1", "timestamp": 1640649600000}]}}`)
	}))
	defer srv.Close()

	m := NewMaven(rawFetcher())
	m.SetBaseURL(srv.URL)

	rel, err := m.Resolve(context.Background(), purl.Coordinate{
		Ecosystem: "maven", Namespace: "org.apache.logging.log4j", Name: "log4j-core", Version: "0.1-beta",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rel.UsedFallbackVersion || rel.Version != "2.17.1" {
		t.Errorf("expected fallback to latestVersion: %+v", rel)
	}
}

func TestMavenRequiresGroup(t *testing.T) {
	m := NewMaven(rawFetcher())
	rel, err := m.Resolve(context.Background(), purl.Coordinate{Ecosystem: "maven", Name: "orphan", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rel.Found {
		t.Error("an artifact without a group cannot be searched")
	}
}
