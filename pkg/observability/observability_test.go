package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	h := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{Algorithm: "kmeans"}

	h.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base, From: domain.StatusConfiguring, To: domain.StatusLoading})
	h.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base, From: domain.StatusConfiguring, To: domain.StatusLoading})
	h.OnStepChange(ctx, &domain.StepEvent{EventBase: base, From: 0, To: 1, Auto: true})
	h.OnTraceReady(ctx, &domain.TraceEvent{EventBase: base, Steps: 14, Duration: time.Millisecond})
	h.OnTraceFailed(ctx, &domain.TraceEvent{EventBase: base, Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("kmeans", "configuring", "loading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepMoves.WithLabelValues("kmeans", "true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StepMoves.WithLabelValues("kmeans", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildFailures.WithLabelValues("kmeans")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TraceLength))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnTraceFailed(context.Background(), &domain.TraceEvent{EventBase: domain.EventBase{Algorithm: "svm"}})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `mlens_trace_build_failures_total{algorithm="svm"} 1`)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := observability.LogHooks(logger)
	ctx := context.Background()

	h.OnTraceReady(ctx, &domain.TraceEvent{EventBase: domain.EventBase{Algorithm: "knn"}, Steps: 21})
	h.OnStepChange(ctx, &domain.StepEvent{EventBase: domain.EventBase{Algorithm: "knn"}, To: 3})

	out := buf.String()
	assert.Contains(t, out, "msg=trace_ready")
	assert.Contains(t, out, "steps=21")
	assert.NotContains(t, out, "step_change", "step moves log at debug")
}

func TestComposedHooks(t *testing.T) {
	var buf bytes.Buffer
	m := observability.NewMetrics(nil)
	hooks := domain.ComposeHooks(m.Hooks(), observability.LogHooks(slog.New(slog.NewTextHandler(&buf, nil))))

	hooks.OnStatusChange(context.Background(), &domain.StatusEvent{
		EventBase: domain.EventBase{Algorithm: "ffnn"},
		From:      domain.StatusLoading,
		To:        domain.StatusRunning,
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("ffnn", "loading", "running")))
	assert.Contains(t, buf.String(), "to=running")
}
