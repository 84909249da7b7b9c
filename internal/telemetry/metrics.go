// Package telemetry wires Prometheus metrics and OpenTelemetry tracing into
// the dispatcher lifecycle.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

const namespace = "monkeytools"

// Outcome label values.
const (
	OutcomeSuccess = "success"
)

// Metrics holds the tool collectors on a private registry so that several
// servers (and tests) can coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    *prometheus.GaugeVec
}

// NewMetrics registers the tool collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_invocations_total",
				Help:      "Total number of tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool invocations",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"tool"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tool_in_flight",
				Help:      "Tool invocations currently running",
			},
			[]string{"tool"},
		),
	}
	m.registry.MustRegister(
		m.invocations,
		m.duration,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks records every dispatch. The outcome label is "success" or the
// error kind of the failure.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnToolCall: func(_ context.Context, e *domain.ToolEvent) {
			m.inFlight.WithLabelValues(e.ToolName).Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.inFlight.WithLabelValues(e.ToolName).Dec()
			outcome := OutcomeSuccess
			if e.IsError() {
				outcome = string(e.ErrorKind)
			}
			m.invocations.WithLabelValues(e.ToolName, outcome).Inc()
			m.duration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
