// Package observability holds the Prometheus metrics for the assistant service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pointer"

// Metrics groups every collector the service exports.
type Metrics struct {
	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	RetriesTotal       *prometheus.CounterVec
	AppliesTotal       *prometheus.CounterVec
	VerificationsTotal *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CompletionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "completions_total",
			Help:      "Completion requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		CompletionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "completion_duration_seconds",
			Help:      "Completion latency including retries",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 45, 90},
		}, []string{"provider"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Retried completion attempts by provider",
		}, []string{"provider"}),
		AppliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "apply",
			Name:      "changes_total",
			Help:      "Change applications by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "apply",
			Name:      "verifications_total",
			Help:      "Post-apply verifications by outcome",
		}, []string{"outcome"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveCompletion records one finished gateway call.
func (m *Metrics) ObserveCompletion(provider, outcome string, d time.Duration) {
	m.CompletionsTotal.WithLabelValues(provider, outcome).Inc()
	m.CompletionDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncRetry counts a retried attempt.
func (m *Metrics) IncRetry(provider string) {
	m.RetriesTotal.WithLabelValues(provider).Inc()
}

// ObserveApply counts a change application.
func (m *Metrics) ObserveApply(strategy, outcome string) {
	m.AppliesTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveVerification counts a verifier run: matched, repaired or mismatched.
func (m *Metrics) ObserveVerification(outcome string) {
	m.VerificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
