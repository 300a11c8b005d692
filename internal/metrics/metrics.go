// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package metrics registers the Prometheus instrumentation for the API,
// the scan engine, the quote provider client and WebSocket delivery.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Scan Engine Metrics
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_scan_runs_total",
			Help: "Total number of watchlist scan cycles",
		},
		[]string{"outcome"}, // completed, skipped, failed
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alert_scan_duration_seconds",
			Help:    "Duration of a full watchlist scan cycle in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ScanPairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_scan_pairs_total",
			Help: "Total number of (user, company) pairs evaluated",
		},
		[]string{"outcome"}, // alerted, below_threshold, deduplicated, failed
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"type"},
	)

	// Quote Provider Metrics
	QuoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_provider_requests_total",
			Help: "Total number of quote provider requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, failure, rejected
	)

	QuoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_provider_request_duration_seconds",
			Help:    "Duration of quote provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"event"},
	)

	WebSocketMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to slow clients",
		},
	)
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}
