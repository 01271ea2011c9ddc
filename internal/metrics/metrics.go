// Package metrics exposes Prometheus collectors for the HTTP API, the live
// messaging channel, the email adapter and the verification lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillmatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillmatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Live channel
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillmatch_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	PresenceEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillmatch_presence_entries",
			Help: "Current number of users bound to a live connection",
		},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillmatch_messages_relayed_total",
			Help: "Messages handled by the relay, by outcome",
		},
		[]string{"outcome"}, // "delivered", "stored", "dropped", "persist_failed"
	)

	// Email
	EmailAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillmatch_email_attempts_total",
			Help: "SMTP send attempts, by result",
		},
		[]string{"result"}, // "success", "transient", "auth_failed", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skillmatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Verification lifecycle
	VerificationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillmatch_verification_events_total",
			Help: "Verification lifecycle events",
		},
		[]string{"event"}, // "issued", "verified", "rejected", "resent"
	)

	UnverifiedPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillmatch_unverified_users_purged_total",
			Help: "Unverified users removed by the retention sweep",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordRelay(outcome string) {
	MessagesRelayed.WithLabelValues(outcome).Inc()
}

func RecordEmailAttempt(result string) {
	EmailAttempts.WithLabelValues(result).Inc()
}

func RecordVerification(event string) {
	VerificationEvents.WithLabelValues(event).Inc()
}
