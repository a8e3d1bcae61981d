// Package metrics provides Prometheus instrumentation for the Custos server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	// LoginAttempts counts login attempts by result
	// (success, invalid_credentials, inactive, rate_limited, error).
	LoginAttempts *prometheus.CounterVec

	// GuardDecisions counts guard checks by outcome error code,
	// with "ok" for allowed requests.
	GuardDecisions *prometheus.CounterVec

	// HTTPDuration observes request latency by method, route and status.
	HTTPDuration *prometheus.HistogramVec

	// TokensIssued counts issued bearer tokens by grant (password, refresh).
	TokensIssued *prometheus.CounterVec

	// AuditEventsArchived counts audit events shipped to object storage.
	AuditEventsArchived prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custos",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custos",
			Name:      "guard_decisions_total",
			Help:      "Guard checks by outcome code.",
		}, []string{"code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "custos",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custos",
			Name:      "tokens_issued_total",
			Help:      "Issued bearer tokens by grant.",
		}, []string{"grant"}),
		AuditEventsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "custos",
			Name:      "audit_events_archived_total",
			Help:      "Audit events shipped to object storage.",
		}),
	}

	registry.MustRegister(
		m.LoginAttempts,
		m.GuardDecisions,
		m.HTTPDuration,
		m.TokensIssued,
		m.AuditEventsArchived,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
