// Package analyzer runs the per-component pipeline: extract an identity,
// resolve the declared version upstream, detect framework membership, and
// classify support. Components are independent, so the work fans out over
// a bounded worker pool; results keep the input order.
package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/exploopio/supportscan/pkg/classify"
	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/errors"
	"github.com/exploopio/supportscan/pkg/identity"
	"github.com/exploopio/supportscan/pkg/lifecycle"
	"github.com/exploopio/supportscan/pkg/purl"
	"github.com/exploopio/supportscan/pkg/resolvers"
	"github.com/exploopio/supportscan/pkg/sbom"
)

// DefaultWorkers bounds the pool to what the strictest upstream rate
// limit comfortably sustains.
const DefaultWorkers = 5

// ReleaseSource abstracts the resolver registry so the pipeline can be
// tested without network-facing resolvers.
type ReleaseSource interface {
	ResolveCoordinate(ctx context.Context, coord purl.Coordinate) (*resolvers.Release, error)
	ResolveURL(ctx context.Context, rawURL, name, version string) (*resolvers.Release, error)
}

// Options configures a pipeline run.
type Options struct {
	// Workers bounds the pool; DefaultWorkers when zero.
	Workers int

	// Limit stops after the first N components when positive.
	Limit int

	// ProductEOL is the externally supplied product end-of-life date,
	// handed to the classifier unchanged.
	ProductEOL *time.Time

	// Now overrides the clock for age computation.
	Now func() time.Time

	Logger core.Logger

	// OnResult is invoked as each component finishes, from worker
	// goroutines. Callbacks must be safe for concurrent use.
	OnResult func(Result)
}

// Result is the pipeline's output for one component. Index is the
// component's position in the input slice.
type Result struct {
	Index     int
	Component sbom.Component

	Release        *resolvers.Release
	Framework      *lifecycle.Match
	Classification classify.Result

	// Elapsed is the wall time this component's pipeline run took.
	Elapsed time.Duration

	// Err records a malformed component or a cancellation. Resolution
	// failures are not errors here; they classify as UNKNOWN.
	Err error
}

// Analyzer wires the pipeline's stages together.
type Analyzer struct {
	source     ReleaseSource
	detector   *lifecycle.Detector
	classifier *classify.Classifier
	opts       Options
}

func New(source ReleaseSource, opts Options) *Analyzer {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = core.NewNopLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		source:     source,
		detector:   &lifecycle.Detector{Now: now},
		classifier: &classify.Classifier{Now: now},
		opts:       opts,
	}
}

// Run analyzes components and returns one result per input component, in
// input order. Cancellation is cooperative: components not yet picked up
// when ctx is done carry ctx.Err(), and everything already finished is
// returned as-is. Partial results are valid output.
func (a *Analyzer) Run(ctx context.Context, components []sbom.Component) []Result {
	total := len(components)
	if a.opts.Limit > 0 && a.opts.Limit < total {
		total = a.opts.Limit
	}

	results := make([]Result, total)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < a.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.analyzeOne(ctx, i, components[i])
				if a.opts.OnResult != nil {
					a.opts.OnResult(results[i])
				}
			}
		}()
	}

feed:
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Mark everything not yet handed out and stop feeding.
			for j := i; j < total; j++ {
				results[j] = Result{Index: j, Component: components[j], Err: ctx.Err(), Classification: a.unknownResult()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (a *Analyzer) analyzeOne(ctx context.Context, index int, comp sbom.Component) (res Result) {
	started := time.Now()
	res = Result{Index: index, Component: comp}
	defer func() { res.Elapsed = time.Since(started) }()

	if comp.Name == "" {
		res.Err = errors.E(errors.Op("analyzer.analyzeOne"), errors.KindMalformedInput, errors.ErrEmptyName)
		res.Classification = a.unknownResult()
		return res
	}

	// A component without a declared version cannot be resolved; it
	// classifies on framework membership alone.
	if comp.DeclaredVersion != "" {
		res.Release = a.resolve(ctx, comp)
	}

	res.Framework = a.detector.Detect(comp.Name, comp.DeclaredVersion)
	res.Classification = a.classifier.Classify(res.Release, res.Framework, a.opts.ProductEOL)
	return res
}

// resolve walks the resolution order: the package coordinate first, then
// each candidate URL by descending reference quality. A transport failure
// means "source unavailable" and moves on to the next fallback.
func (a *Analyzer) resolve(ctx context.Context, comp sbom.Component) *resolvers.Release {
	id := identity.Extract(comp)
	if id.Empty() {
		return nil
	}

	if id.Coordinate != nil {
		coord := *id.Coordinate
		if coord.Version == "" {
			coord.Version = comp.DeclaredVersion
		}
		rel, err := a.source.ResolveCoordinate(ctx, coord)
		if err != nil {
			a.opts.Logger.Warn("resolve %s via %s registry: %v", comp.Name, coord.Ecosystem, err)
		} else if rel.Found {
			return rel
		}
	}

	for _, u := range id.URLs {
		if ctx.Err() != nil {
			return nil
		}
		rel, err := a.source.ResolveURL(ctx, u.URL, comp.Name, comp.DeclaredVersion)
		if err != nil {
			a.opts.Logger.Warn("resolve %s via %s: %v", comp.Name, u.URL, err)
			continue
		}
		if rel.Found {
			return rel
		}
	}
	return nil
}

func (a *Analyzer) unknownResult() classify.Result {
	return classify.Result{
		Level:      classify.Unknown,
		Confidence: classify.ConfidenceNone,
		Basis:      classify.BasisInsufficientData,
		AgeDays:    -1,
		EndOfLife:  classify.EOL{Note: classify.EOLCannotDetermine},
	}
}
