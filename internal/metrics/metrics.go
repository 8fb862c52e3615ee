// Package metrics exposes Prometheus collectors for crawl runs and the metrics server.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one process. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	pagesTotal                 *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	linkDecisionsTotal         *prometheus.CounterVec
	policyDeniedTotal          prometheus.Counter
	robotsFallbackTotal        *prometheus.CounterVec
	duplicateGroups            *prometheus.GaugeVec
	finalizeTotal              *prometheus.CounterVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_pages_total",
				Help: "Total number of pages processed, labeled by fetch outcome.",
			},
			[]string{"outcome"},
		),
		fetchDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_fetch_duration_seconds",
				Help:    "Histogram of page fetch durations, labeled by fetch outcome.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
		linkDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_link_decisions_total",
				Help: "Discovered links, labeled by the frontier decision.",
			},
			[]string{"decision"},
		),
		policyDeniedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "siteaudit_policy_denied_total",
				Help: "URLs skipped because robots.txt disallows them.",
			},
		),
		robotsFallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_robots_fallback_total",
				Help: "Crawls that proceeded without robots rules, labeled by reason.",
			},
			[]string{"reason"},
		),
		duplicateGroups: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "siteaudit_duplicate_groups",
				Help: "Duplicate value groups found by the last finalization, labeled by kind.",
			},
			[]string{"kind"},
		),
		finalizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteaudit_finalize_total",
				Help: "Result store finalizations, labeled by whether they were degraded.",
			},
			[]string{"degraded"},
		),
		rateLimitDelaysSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteaudit_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"site"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.pagesTotal,
			m.fetchDurationSeconds,
			m.linkDecisionsTotal,
			m.policyDeniedTotal,
			m.robotsFallbackTotal,
			m.duplicateGroups,
			m.finalizeTotal,
			m.rateLimitDelaysSeconds,
			m.httpRequestsTotal,
			m.httpRequestDurationSeconds,
		)
	}
	return m
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObservePage records a processed page.
func (m *Metrics) ObservePage(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(outcome).Inc()
	m.fetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveLink records a frontier decision for a discovered link.
func (m *Metrics) ObserveLink(decision string) {
	if m == nil {
		return
	}
	m.linkDecisionsTotal.WithLabelValues(decision).Inc()
}

// ObservePolicyDenied records a URL skipped by robots rules.
func (m *Metrics) ObservePolicyDenied() {
	if m == nil {
		return
	}
	m.policyDeniedTotal.Inc()
}

// ObserveDuplicates records the number of duplicate groups of a kind.
func (m *Metrics) ObserveDuplicates(kind string, groups int) {
	if m == nil {
		return
	}
	m.duplicateGroups.WithLabelValues(kind).Set(float64(groups))
}

// ObserveFinalize records a result store finalization.
func (m *Metrics) ObserveFinalize(degraded bool) {
	if m == nil {
		return
	}
	m.finalizeTotal.WithLabelValues(strconv.FormatBool(degraded)).Inc()
}

// ObserveRobotsFallback records a crawl that proceeds without robots rules.
func (m *Metrics) ObserveRobotsFallback(reason string) {
	if m == nil {
		return
	}
	m.robotsFallbackTotal.WithLabelValues(reason).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func (m *Metrics) ObserveRateLimitDelay(host string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitDelaysSeconds.WithLabelValues(SanitizeSite(host)).Observe(duration.Seconds())
}

// ObserveHTTPRequest records a request served by the metrics server.
func (m *Metrics) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
