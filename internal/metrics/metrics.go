// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursemates/backend/internal/friendships"
)

const namespace = "coursemates"

// Metrics bundles the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	friendshipOps  *prometheus.CounterVec
	rateLimitDrops prometheus.Counter
}

// New registers the HTTP and friendship collectors plus the Go runtime and
// process collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		friendshipOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "friendship_operations_total",
				Help:      "Friendship store operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		rateLimitDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.friendshipOps,
		m.rateLimitDrops,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// ObserveFriendshipOp counts a store operation. The outcome label is "ok" on
// success, otherwise the store's reason code or "error".
func (m *Metrics) ObserveFriendshipOp(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = friendships.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	m.friendshipOps.WithLabelValues(operation, outcome).Inc()
}

// RateLimited counts a request rejected by the limiter.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitDrops.Inc()
}

// StatsSource reports live friendship counts.
type StatsSource interface {
	Stats() friendships.Stats
}

// TrackFriendships exports gauges of live pending and accepted records,
// sampled from src at scrape time.
func (m *Metrics) TrackFriendships(src StatsSource) {
	gauge := func(status string, pick func(friendships.Stats) int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "friendships_live",
				Help:        "Live friendship records by status",
				ConstLabels: prometheus.Labels{"status": status},
			},
			func() float64 { return float64(pick(src.Stats())) },
		)
	}

	m.registry.MustRegister(
		gauge("pending", func(s friendships.Stats) int { return s.Pending }),
		gauge("accepted", func(s friendships.Stats) int { return s.Accepted }),
	)
}
