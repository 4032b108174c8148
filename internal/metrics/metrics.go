// Package metrics exposes Prometheus instrumentation for conversions and
// chat requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docchat"

// Conversion results.
const (
	ResultOK          = "ok"
	ResultMalformed   = "malformed"
	ResultUnsupported = "unsupported"
	ResultBackend     = "backend_failure"
)

// Chat outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeConversionError = "conversion_error"
	OutcomeUpstreamError   = "upstream_error"
)

type Metrics struct {
	registry           *prometheus.Registry
	conversions        *prometheus.CounterVec
	conversionDuration prometheus.Histogram
	chatRequests       *prometheus.CounterVec
}

// New builds a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_conversions_total",
			Help:      "PDF attachment conversions by result.",
		}, []string{"result"}),
		conversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attachment_conversion_duration_seconds",
			Help:      "Time spent converting a single PDF attachment.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(
		m.conversions,
		m.conversionDuration,
		m.chatRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveConversion(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(result).Inc()
	m.conversionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveChat(provider, outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(provider, outcome).Inc()
}
