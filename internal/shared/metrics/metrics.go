package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Team metrics
	TeamOperationsTotal   *prometheus.CounterVec
	VersionConflictsTotal prometheus.Counter
	TeamsActive           prometheus.Gauge

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
	PushTotal          *prometheus.CounterVec

	// Push connection metrics
	PushConnections prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "hackhub"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		TeamOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "team",
				Name:      "operations_total",
				Help:      "Total number of team registry operations",
			},
			[]string{"operation", "outcome"}, // outcome: ok, error
		),
		VersionConflictsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "team",
				Name:      "version_conflicts_total",
				Help:      "Total number of lost version-guarded write races",
			},
		),
		TeamsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "team",
				Name:      "active",
				Help:      "Number of active teams",
			},
		),

		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notification",
				Name:      "dispatched_total",
				Help:      "Total number of notifications persisted",
			},
			[]string{"type"},
		),
		PushTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "push",
				Name:      "publishes_total",
				Help:      "Total number of live-push attempts",
			},
			[]string{"result"}, // delivered, offline, failed
		),

		PushConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "push",
				Name:      "connections",
				Help:      "Number of open websocket connections",
			},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTeamOperation records the outcome of a team registry operation.
func (m *Metrics) RecordTeamOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.TeamOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordNotification records a persisted notification.
func (m *Metrics) RecordNotification(notificationType string) {
	m.NotificationsTotal.WithLabelValues(notificationType).Inc()
}

// RecordPush records a live-push attempt result.
func (m *Metrics) RecordPush(result string) {
	m.PushTotal.WithLabelValues(result).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
