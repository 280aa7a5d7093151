// Command supportscan analyzes an SBOM's components for support level,
// writes an enriched copy of the document, and emits a JSON run summary.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exploopio/supportscan/pkg/analyzer"
	"github.com/exploopio/supportscan/pkg/core"
	"github.com/exploopio/supportscan/pkg/metrics"
	"github.com/exploopio/supportscan/pkg/report"
	"github.com/exploopio/supportscan/pkg/resolvers"
	"github.com/exploopio/supportscan/pkg/sbom"
	"github.com/exploopio/supportscan/pkg/transport"
)

type fileConfig struct {
	Output      string `yaml:"output"`
	GitHubToken string `yaml:"github_token"`
	GitLabToken string `yaml:"gitlab_token"`
	Workers     int    `yaml:"workers"`
	Limit       int    `yaml:"limit"`
	ProductEOL  string `yaml:"product_eol"`
	CacheDir    string `yaml:"cache_dir"`
	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     bool   `yaml:"verbose"`
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		output      = flag.String("o", "", "enriched SBOM output path (default <input>_analyzed.json)")
		token       = flag.String("token", "", "GitHub API token (or GITHUB_TOKEN)")
		workers     = flag.Int("workers", 0, "concurrent component workers")
		limit       = flag.Int("limit", 0, "analyze only the first N components")
		eolDate     = flag.String("eol-date", "", "product end-of-life date, YYYY-MM-DD")
		cacheDir    = flag.String("cache-dir", "", "directory for the persistent response cache")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		noInput     = flag.Bool("no-input", false, "never prompt; skip the product EOL question")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <sbom.json>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	sbomPath := flag.Arg(0)

	cfg := fileConfig{}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fatal("read config: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fatal("parse config: %v", err)
		}
	}

	// Flags override the config file.
	if *output != "" {
		cfg.Output = *output
	}
	if *token != "" {
		cfg.GitHubToken = *token
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *limit > 0 {
		cfg.Limit = *limit
	}
	if *eolDate != "" {
		cfg.ProductEOL = *eolDate
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *verbose {
		cfg.Verbose = true
	}
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitLabToken == "" {
		cfg.GitLabToken = os.Getenv("GITLAB_TOKEN")
	}

	level := core.LogLevelInfo
	if cfg.Verbose {
		level = core.LogLevelDebug
	}
	logger := core.NewDefaultLogger("supportscan", level)

	productEOL, err := resolveProductEOL(cfg.ProductEOL, *noInput)
	if err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, sbomPath, cfg, productEOL, logger); err != nil {
		fatal("%v", err)
	}
}

func run(ctx context.Context, sbomPath string, cfg fileConfig, productEOL *time.Time, logger core.Logger) error {
	data, err := os.ReadFile(sbomPath)
	if err != nil {
		return fmt.Errorf("read sbom: %w", err)
	}
	doc, err := sbom.Load(data)
	if err != nil {
		return fmt.Errorf("load sbom: %w", err)
	}
	components := doc.Components()
	logger.Info("loaded %s document with %d components", doc.Format, len(components))

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server: %v", err)
			}
		}()
	}

	var cache transport.Cache
	if cfg.CacheDir != "" {
		sqlCache, err := transport.NewSQLiteCache(filepath.Join(cfg.CacheDir, "responses.db"))
		if err != nil {
			return fmt.Errorf("open response cache: %w", err)
		}
		defer sqlCache.Close()
		cache = sqlCache
	}

	client := transport.New(&transport.Config{
		Cache:     cache,
		Logger:    logger,
		OnRequest: collector.ObserveRequest,
	})

	registry, err := resolvers.NewRegistry(&resolvers.Config{
		Fetcher:     client,
		HTTPClient:  client.HTTPClient(),
		GitHubToken: cfg.GitHubToken,
		GitLabToken: cfg.GitLabToken,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	a := analyzer.New(registry, analyzer.Options{
		Workers:    cfg.Workers,
		Limit:      cfg.Limit,
		ProductEOL: productEOL,
		Logger:     logger,
		OnResult: func(r analyzer.Result) {
			collector.ObserveClassification(string(r.Classification.Level))
			collector.ObserveResolveDuration(r.Elapsed.Seconds())
			logger.Debug("%s %s -> %s (%s)", r.Component.Name, r.Component.DeclaredVersion,
				r.Classification.Level, r.Classification.Confidence)
		},
	})
	results := a.Run(ctx, components)

	now := time.Now()
	for _, r := range results {
		if err := doc.Annotate(r.Index, supportProperties(r, now)); err != nil {
			logger.Warn("annotate component %d: %v", r.Index, err)
		}
	}

	outPath := cfg.Output
	if outPath == "" {
		outPath = derivedPath(sbomPath, "_analyzed.json")
	}
	enriched, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal enriched sbom: %w", err)
	}
	if err := os.WriteFile(outPath, enriched, 0o644); err != nil {
		return fmt.Errorf("write enriched sbom: %w", err)
	}

	summary := report.Build(sbomPath, results, now)
	summaryPath := derivedPath(outPath, "_summary.json")
	if err := summary.WriteFile(summaryPath); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	logger.Info("analyzed %d components in %s", len(results), time.Since(started).Round(time.Millisecond))
	fmt.Printf("Actively maintained:   %d\n", summary.ActivelyMaintained)
	fmt.Printf("No longer maintained:  %d\n", summary.NoLongerMaintained)
	fmt.Printf("Abandoned:             %d\n", summary.Abandoned)
	fmt.Printf("Unknown:               %d\n", summary.Unknown)
	fmt.Printf("Enriched SBOM: %s\nSummary:       %s\n", outPath, summaryPath)

	if ctx.Err() != nil {
		return fmt.Errorf("analysis interrupted: %w", ctx.Err())
	}
	return nil
}

// resolveProductEOL parses the configured date or, when none was given
// and prompting is allowed, asks on stdin. A blank answer skips it.
func resolveProductEOL(configured string, noInput bool) (*time.Time, error) {
	if configured != "" {
		t, err := time.Parse("2006-01-02", configured)
		if err != nil {
			return nil, fmt.Errorf("invalid product EOL date %q, want YYYY-MM-DD", configured)
		}
		return &t, nil
	}
	if noInput {
		return nil, nil
	}

	fmt.Print("Product end-of-life date (YYYY-MM-DD, blank to skip): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, nil
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", line)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", line)
	}
	return &t, nil
}

func supportProperties(r analyzer.Result, now time.Time) sbom.SupportProperties {
	c := r.Classification
	p := sbom.SupportProperties{
		Level:      string(c.Level),
		Confidence: string(c.Confidence),
		EndOfLife:  c.EndOfLife.Note,
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
	if c.EndOfLife.Date != nil {
		p.EndOfLife = c.EndOfLife.Date.Format("2006-01-02")
	}
	if c.AgeDays >= 0 {
		p.DaysSinceRelease = strconv.Itoa(c.AgeDays)
	}
	if r.Release != nil && r.Release.ReleaseDate != nil {
		p.LastReleaseDate = r.Release.ReleaseDate.Format("2006-01-02")
	}
	return p
}

// derivedPath appends suffix to path's base name, replacing the .json
// extension: app.cdx.json -> app.cdx_analyzed.json.
func derivedPath(path, suffix string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	base = strings.TrimSuffix(base, "_analyzed")
	return base + suffix
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "supportscan: "+format+"\n", args...)
	os.Exit(1)
}
