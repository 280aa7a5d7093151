package identity

import (
	"testing"

	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/sbom"
)

func TestExtract_CoordinateWins(t *testing.T) {
	c := sbom.Component{
		Name:            "lodash",
		DeclaredVersion: "4.17.21",
		Coordinate:      &purl.Coordinate{Ecosystem: "npm", Name: "lodash", Version: "4.17.21"},
	}
	id := Extract(c)
	if id.Coordinate == nil || id.Coordinate.Name != "lodash" {
		t.Errorf("coordinate = %+v", id.Coordinate)
	}
	if id.Empty() {
		t.Error("identity should not be empty")
	}
}

func TestExtract_URLRanking(t *testing.T) {
	c := sbom.Component{
		Name: "mystery",
		CandidateSourceURLs: []sbom.SourceURL{
			{URL: "https://files.example.com/x.tgz", Kind: sbom.RefDistribution},
			{URL: "https://example.com", Kind: sbom.RefWebsite},
			{URL: "https://github.com/example/mystery", Kind: sbom.RefVCS},
			{URL: "https://repo.example.com/mystery", Kind: sbom.RefRepository},
		},
	}
	id := Extract(c)
	want := []string{
		"https://github.com/example/mystery",
		"https://repo.example.com/mystery",
		"https://example.com",
		"https://files.example.com/x.tgz",
	}
	if len(id.URLs) != len(want) {
		t.Fatalf("len(URLs) = %d, want %d", len(id.URLs), len(want))
	}
	for i, w := range want {
		if id.URLs[i].URL != w {
			t.Errorf("URLs[%d] = %q, want %q", i, id.URLs[i].URL, w)
		}
	}
}

func TestExtract_Deduplicates(t *testing.T) {
	c := sbom.Component{
		Name: "dup",
		CandidateSourceURLs: []sbom.SourceURL{
			{URL: "https://github.com/a/b", Kind: sbom.RefVCS},
			{URL: "https://github.com/a/b", Kind: sbom.RefWebsite},
		},
	}
	id := Extract(c)
	if len(id.URLs) != 1 {
		t.Errorf("len(URLs) = %d, want 1", len(id.URLs))
	}
}

func TestExtract_Empty(t *testing.T) {
	id := Extract(sbom.Component{Name: "bare", DeclaredVersion: "1.0"})
	if !id.Empty() {
		t.Error("expected empty identity")
	}
}
