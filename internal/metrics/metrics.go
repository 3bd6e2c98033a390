// Package metrics collects and exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all lenslog metrics.
type Collector struct {
	logins          *prometheus.CounterVec
	loginFailures   *prometheus.CounterVec
	searches        prometheus.Counter
	upstreamErrors  *prometheus.CounterVec
	unsplashLatency prometheus.Histogram

	registry *prometheus.Registry
}

// NewCollector creates a Collector with its own registry.
// A dedicated registry keeps /metrics free of default Go runtime collectors
// registered by other libraries.
func NewCollector() *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lenslog_logins_total",
			Help: "Successful logins by OAuth provider.",
		}, []string{"provider"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lenslog_login_failures_total",
			Help: "Failed OAuth exchanges by provider.",
		}, []string{"provider"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lenslog_searches_total",
			Help: "Persisted searches.",
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lenslog_upstream_errors_total",
			Help: "Upstream call failures by upstream name.",
		}, []string{"upstream"}),
		unsplashLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lenslog_unsplash_latency_seconds",
			Help:    "Latency of Unsplash search calls.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
	}

	c.registry.MustRegister(
		c.logins,
		c.loginFailures,
		c.searches,
		c.upstreamErrors,
		c.unsplashLatency,
	)
	return c
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordLogin counts a successful login for the provider.
func (c *Collector) RecordLogin(provider string) {
	c.logins.WithLabelValues(provider).Inc()
}

// RecordLoginFailure counts a failed OAuth exchange for the provider.
func (c *Collector) RecordLoginFailure(provider string) {
	c.loginFailures.WithLabelValues(provider).Inc()
}

// RecordSearch counts one persisted search.
func (c *Collector) RecordSearch() {
	c.searches.Inc()
}

// RecordUpstreamError counts a failed call to the named upstream
// ("unsplash", "google", "facebook", "github", "postgres", "redis").
func (c *Collector) RecordUpstreamError(upstream string) {
	c.upstreamErrors.WithLabelValues(upstream).Inc()
}

// RecordUnsplashLatency records the duration of one Unsplash search call.
func (c *Collector) RecordUnsplashLatency(d time.Duration) {
	c.unsplashLatency.Observe(d.Seconds())
}
