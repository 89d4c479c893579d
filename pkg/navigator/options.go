package navigator

import (
	"log/slog"
	"time"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTickInterval is the auto-play period.
const DefaultTickInterval = 500 * time.Millisecond

// Option configures a Navigator.
type Option func(*options)

type options struct {
	tick   time.Duration
	cache  ports.TraceCache
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	tracer trace.Tracer
}

// WithTickInterval sets the auto-play period. Non-positive values keep the default.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithCache reuses traces of identical configurations.
func WithCache(cache ports.TraceCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger configures a logger for the Navigator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer overrides the OpenTelemetry tracer used around trace builds.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}
