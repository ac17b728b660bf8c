// Package metrics exposes Prometheus collectors for HTTP traffic and lead scoring.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	SubmissionsReceived *prometheus.CounterVec
	LeadsScored         *prometheus.CounterVec
	LeadScore           prometheus.Histogram
	RulesSkipped        *prometheus.CounterVec
	ScoringDuration     prometheus.Histogram

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		SubmissionsReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_submissions_received_total",
				Help: "Total number of funnel step submissions",
			},
			[]string{"outcome"}, // scored, unscored
		),
		LeadsScored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_scored_total",
				Help: "Total number of lead score calculations",
			},
			[]string{"qualification"},
		),
		LeadScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lead_score",
			Help:    "Distribution of computed lead scores",
			Buckets: []float64{0, 20, 50, 80, 100, 150},
		}),
		RulesSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_rules_skipped_total",
				Help: "Rules skipped during evaluation because their condition was unusable",
			},
			[]string{"reason"},
		),
		ScoringDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lead_scoring_duration_seconds",
			Help:    "Time spent consolidating and scoring one lead",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordSubmission counts an accepted submission.
func (m *Metrics) RecordSubmission(scored bool) {
	if m == nil {
		return
	}
	outcome := "unscored"
	if scored {
		outcome = "scored"
	}
	m.SubmissionsReceived.WithLabelValues(outcome).Inc()
}

// RecordLeadScored records one scoring result.
func (m *Metrics) RecordLeadScored(qualification string, score int, duration time.Duration) {
	if m == nil {
		return
	}
	m.LeadsScored.WithLabelValues(qualification).Inc()
	m.LeadScore.Observe(float64(score))
	m.ScoringDuration.Observe(duration.Seconds())
}

// RecordRuleSkipped counts a rule that could not be applied.
func (m *Metrics) RecordRuleSkipped(reason string) {
	if m == nil {
		return
	}
	m.RulesSkipped.WithLabelValues(reason).Inc()
}

// RecordCache counts a cache lookup outcome.
func (m *Metrics) RecordCache(cacheType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
