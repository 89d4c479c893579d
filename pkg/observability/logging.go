package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mlens/pkg/domain"
)

// LogHooks writes every lifecycle event to logger. Step moves log at debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.InfoContext(ctx, "status_change",
				"algorithm", e.Algorithm,
				"from", e.From,
				"to", e.To,
			)
		},
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_change",
				"algorithm", e.Algorithm,
				"from", e.From,
				"to", e.To,
				"step_type", e.StepType,
				"auto", e.Auto,
			)
		},
		OnTraceReady: func(ctx context.Context, e *domain.TraceEvent) {
			logger.InfoContext(ctx, "trace_ready",
				"algorithm", e.Algorithm,
				"steps", e.Steps,
				"duration", e.Duration,
				"cached", e.Cached,
			)
		},
		OnTraceFailed: func(ctx context.Context, e *domain.TraceEvent) {
			logger.ErrorContext(ctx, "trace_failed",
				"algorithm", e.Algorithm,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
	}
}
