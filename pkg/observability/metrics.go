package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records navigator activity as Prometheus series.
type Metrics struct {
	BuildDuration *prometheus.HistogramVec
	TraceLength   *prometheus.HistogramVec
	BuildFailures *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	StepMoves     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mlens_trace_build_duration_seconds",
				Help:    "Duration of trace builds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"algorithm", "cached"},
		),
		TraceLength: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mlens_trace_steps",
				Help:    "Number of steps in built traces",
				Buckets: prometheus.ExponentialBuckets(2, 2, 10),
			},
			[]string{"algorithm"},
		),
		BuildFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlens_trace_build_failures_total",
				Help: "Total number of failed trace builds",
			},
			[]string{"algorithm"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlens_status_transitions_total",
				Help: "Total number of navigator status changes",
			},
			[]string{"algorithm", "from", "to"},
		),
		StepMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlens_step_moves_total",
				Help: "Total number of step index changes",
			},
			[]string{"algorithm", "auto"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.BuildDuration, m.TraceLength, m.BuildFailures, m.Transitions, m.StepMoves)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Hooks adapts the collectors to navigator lifecycle hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(_ context.Context, e *domain.StatusEvent) {
			m.Transitions.WithLabelValues(e.Algorithm, string(e.From), string(e.To)).Inc()
		},
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			m.StepMoves.WithLabelValues(e.Algorithm, strconv.FormatBool(e.Auto)).Inc()
		},
		OnTraceReady: func(_ context.Context, e *domain.TraceEvent) {
			m.BuildDuration.WithLabelValues(e.Algorithm, strconv.FormatBool(e.Cached)).Observe(e.Duration.Seconds())
			m.TraceLength.WithLabelValues(e.Algorithm).Observe(float64(e.Steps))
		},
		OnTraceFailed: func(_ context.Context, e *domain.TraceEvent) {
			m.BuildFailures.WithLabelValues(e.Algorithm).Inc()
		},
	}
}
