// Package metrics exposes Prometheus instrumentation for an analysis run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the analyzer's metrics on a private registry so that
// embedding applications never collide with it.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	cacheHitsTotal  prometheus.Counter
	classifications *prometheus.CounterVec
	resolveSeconds  prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supportscan",
			Name:      "requests_total",
			Help:      "Upstream HTTP requests by host.",
		}, []string{"host"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supportscan",
			Name:      "cache_hits_total",
			Help:      "Responses served from the local cache.",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supportscan",
			Name:      "classifications_total",
			Help:      "Components classified, by support level.",
		}, []string{"level"}),
		resolveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supportscan",
			Name:      "resolve_duration_seconds",
			Help:      "Wall time spent resolving one component.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	c.registry.MustRegister(c.requestsTotal, c.cacheHitsTotal, c.classifications, c.resolveSeconds)
	return c
}

// ObserveRequest records one upstream request. It has the signature the
// transport layer's OnRequest callback expects.
func (c *Collector) ObserveRequest(host string, cacheHit bool) {
	c.requestsTotal.WithLabelValues(host).Inc()
	if cacheHit {
		c.cacheHitsTotal.Inc()
	}
}

// ObserveClassification counts one classified component.
func (c *Collector) ObserveClassification(level string) {
	c.classifications.WithLabelValues(level).Inc()
}

// ObserveResolveDuration records the wall time of one resolution.
func (c *Collector) ObserveResolveDuration(seconds float64) {
	c.resolveSeconds.Observe(seconds)
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
