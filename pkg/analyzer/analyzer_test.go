package analyzer

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exploopio/supportscan/pkg/classify"
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/resolvers"
	"github.com/exploopio/supportscan/pkg/sbom"
)

var testNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

// fakeSource serves canned releases keyed by coordinate name or URL.
type fakeSource struct {
	mu       sync.Mutex
	byName   map[string]*resolvers.Release
	byURL    map[string]*resolvers.Release
	calls    int32
	delay    time.Duration
	urlCalls []string
}

func (f *fakeSource) ResolveCoordinate(ctx context.Context, coord purl.Coordinate) (*resolvers.Release, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if rel, ok := f.byName[coord.Name]; ok {
		return rel, nil
	}
	return resolvers.NotFound(), nil
}

func (f *fakeSource) ResolveURL(ctx context.Context, rawURL, name, version string) (*resolvers.Release, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.urlCalls = append(f.urlCalls, rawURL)
	f.mu.Unlock()
	if rel, ok := f.byURL[rawURL]; ok {
		return rel, nil
	}
	return resolvers.NotFound(), nil
}

func release(date time.Time) *resolvers.Release {
	return &resolvers.Release{Found: true, ReleaseDate: &date, SourceKind: resolvers.SourceRegistry}
}

func npmComponent(name, version string) sbom.Component {
	return sbom.Component{
		Name:            name,
		DeclaredVersion: version,
		Coordinate:      &purl.Coordinate{Ecosystem: "npm", Name: name, Version: version},
	}
}

func newTestAnalyzer(src ReleaseSource, opts Options) *Analyzer {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(src, opts)
}

func TestRunPreservesInputOrder(t *testing.T) {
	src := &fakeSource{byName: map[string]*resolvers.Release{
		"fresh": release(testNow.AddDate(0, -6, 0)),
		"stale": release(testNow.AddDate(-8, 0, 0)),
	}}
	comps := []sbom.Component{
		npmComponent("fresh", "1.0.0"),
		npmComponent("stale", "0.1.0"),
		npmComponent("missing", "2.0.0"),
	}

	results := newTestAnalyzer(src, Options{Workers: 3}).Run(context.Background(), comps)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Component.Name != comps[i].Name {
			t.Errorf("result %d holds %q at index %d", i, r.Component.Name, r.Index)
		}
	}
	if results[0].Classification.Level != classify.ActivelyMaintained {
		t.Errorf("fresh: %+v", results[0].Classification)
	}
	if results[1].Classification.Level != classify.NoLongerMaintained {
		t.Errorf("stale: %+v", results[1].Classification)
	}
	if results[2].Classification.Level != classify.Unknown {
		t.Errorf("missing: %+v", results[2].Classification)
	}
}

func TestNoIdentityMeansNoTransportCalls(t *testing.T) {
	src := &fakeSource{}
	comps := []sbom.Component{{Name: "mystery-lib", DeclaredVersion: "1.0"}}

	results := newTestAnalyzer(src, Options{}).Run(context.Background(), comps)
	if got := atomic.LoadInt32(&src.calls); got != 0 {
		t.Errorf("expected zero upstream calls, got %d", got)
	}
	c := results[0].Classification
	if c.Level != classify.Unknown || c.Confidence != classify.ConfidenceNone || c.Basis != classify.BasisInsufficientData {
		t.Errorf("got %+v", c)
	}
}

func TestURLFallbackOrder(t *testing.T) {
	src := &fakeSource{byURL: map[string]*resolvers.Release{
		"https://github.com/acme/lib": release(testNow.AddDate(-1, 0, 0)),
	}}
	comps := []sbom.Component{{
		Name:            "lib",
		DeclaredVersion: "2.2.0",
		CandidateSourceURLs: []sbom.SourceURL{
			{URL: "https://acme.example.com", Kind: sbom.RefWebsite},
			{URL: "https://github.com/acme/lib", Kind: sbom.RefVCS},
		},
	}}

	results := newTestAnalyzer(src, Options{Workers: 1}).Run(context.Background(), comps)
	if results[0].Release == nil || !results[0].Release.Found {
		t.Fatalf("expected URL fallback to resolve: %+v", results[0])
	}
	if len(src.urlCalls) == 0 || !strings.Contains(src.urlCalls[0], "github.com") {
		t.Errorf("vcs URL must be tried before the website, got %v", src.urlCalls)
	}
}

func TestEmptyNameIsMalformed(t *testing.T) {
	results := newTestAnalyzer(&fakeSource{}, Options{}).Run(context.Background(), []sbom.Component{{DeclaredVersion: "1.0"}})
	if results[0].Err == nil {
		t.Fatal("expected an error for a nameless component")
	}
	if results[0].Classification.Level != classify.Unknown {
		t.Errorf("got %+v", results[0].Classification)
	}
}

func TestEmptyVersionSkipsResolution(t *testing.T) {
	src := &fakeSource{}
	comps := []sbom.Component{npmComponent("lib", "")}

	results := newTestAnalyzer(src, Options{}).Run(context.Background(), comps)
	if got := atomic.LoadInt32(&src.calls); got != 0 {
		t.Errorf("expected no resolution for an empty version, got %d calls", got)
	}
	if results[0].Classification.Level != classify.Unknown {
		t.Errorf("got %+v", results[0].Classification)
	}
}

func TestFrameworkDetectionWithoutRelease(t *testing.T) {
	comps := []sbom.Component{{Name: "System.Text.Json", DeclaredVersion: "8.0.0"}}

	results := newTestAnalyzer(&fakeSource{}, Options{}).Run(context.Background(), comps)
	r := results[0]
	if r.Framework == nil {
		t.Fatal("expected a framework match for a System.* package")
	}
	if r.Classification.Basis != classify.BasisFrameworkSupported {
		t.Errorf("got %+v", r.Classification)
	}
}

func TestLimitStopsEarly(t *testing.T) {
	src := &fakeSource{byName: map[string]*resolvers.Release{"a": release(testNow)}}
	comps := []sbom.Component{npmComponent("a", "1.0"), npmComponent("b", "1.0"), npmComponent("c", "1.0")}

	results := newTestAnalyzer(src, Options{Limit: 2}).Run(context.Background(), comps)
	if len(results) != 2 {
		t.Fatalf("limit not honored, got %d results", len(results))
	}
}

func TestCancellationReturnsPartialResults(t *testing.T) {
	src := &fakeSource{
		byName: map[string]*resolvers.Release{"a": release(testNow)},
		delay:  50 * time.Millisecond,
	}
	comps := make([]sbom.Component, 20)
	for i := range comps {
		comps[i] = npmComponent("a", "1.0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(75 * time.Millisecond)
		cancel()
	}()

	results := newTestAnalyzer(src, Options{Workers: 1}).Run(ctx, comps)
	if len(results) != len(comps) {
		t.Fatalf("got %d results, want one slot per component", len(results))
	}
	var cancelled int
	for _, r := range results {
		if r.Err != nil {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("expected some components to be marked cancelled")
	}
	if cancelled == len(comps) {
		t.Error("expected at least one completed result before cancellation")
	}
}
