package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration prometheus.Histogram

	AuthSuccessTotal  prometheus.Counter
	AuthFailuresTotal *prometheus.CounterVec

	AuditEventsTotal  *prometheus.CounterVec
	AuditQueueDropped prometheus.Counter

	OutboxPublishedTotal prometheus.Counter
	OutboxFailuresTotal  prometheus.Counter
}

// AuditRecorded increments the audit event counter for an outcome.
func (m *Metrics) AuditRecorded(outcome string) {
	m.AuditEventsTotal.WithLabelValues(outcome).Inc()
}

// AuditDropped increments the dropped async audit event counter.
func (m *Metrics) AuditDropped() {
	m.AuditQueueDropped.Inc()
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration",
		}),
		AuthSuccessTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caregate_auth_success_total",
			Help: "Total successful bearer token authentications",
		}),
		AuthFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_auth_failures_total",
			Help: "Total failed bearer token authentications by reason",
		}, []string{"reason"}),
		AuditEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_audit_events_total",
			Help: "Total audit events recorded by outcome",
		}, []string{"outcome"}),
		AuditQueueDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "caregate_audit_queue_dropped_total",
			Help: "Audit events dropped: async queue full or store retries exhausted",
		}),
		OutboxPublishedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caregate_outbox_published_total",
			Help: "Outbox entries successfully published to Kafka",
		}),
		OutboxFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "caregate_outbox_failures_total",
			Help: "Outbox publish attempts that failed",
		}),
	}
}
