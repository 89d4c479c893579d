package mlens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/algorithms"
	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/aretw0/mlens/pkg/registry"
	"github.com/aretw0/mlens/pkg/session"
)

// Engine is the high-level entry point for the mlens library.
// It owns the algorithm registry and the live sessions of the process.
type Engine struct {
	registry *registry.Registry
	sessions *session.Manager
	cache    ports.TraceCache
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tick     time.Duration
	booster  xgboost.Booster
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the default algorithm catalog.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCache shares built traces between sessions with identical configurations.
func WithCache(cache ports.TraceCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTickInterval sets the auto-play period of new sessions.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.tick = d
	}
}

// WithBooster selects the boosting backend of the default xgboost algorithm.
// It has no effect together with WithRegistry.
func WithBooster(b xgboost.Booster) Option {
	return func(e *Engine) {
		e.booster = b
	}
}

// New initializes an Engine. Without WithRegistry it serves the full catalog.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.registry == nil {
		eng.registry = algorithms.Default(algorithms.WithBooster(eng.booster))
	}
	eng.sessions = session.NewManager(session.WithLogger(eng.logger))
	return eng
}

// Algorithms lists the registered algorithms in registration order.
func (e *Engine) Algorithms() []ports.Algorithm {
	return e.registry.List()
}

// Algorithm looks an algorithm up by slug or synonym.
func (e *Engine) Algorithm(name string) (ports.Algorithm, error) {
	return e.registry.Get(name)
}

// NewSession creates a session in the configuring state. Call Start on the
// returned session to build its trace.
func (e *Engine) NewSession(name string, values params.Values, seed int64) (session.Handle, error) {
	alg, err := e.registry.Get(name)
	if err != nil {
		return session.Handle{}, err
	}
	return e.sessions.Create(alg, values, ports.SessionConfig{
		Seed:         seed,
		TickInterval: e.tick,
		Cache:        e.cache,
		Hooks:        e.hooks,
		Logger:       e.logger.With("algorithm", alg.Meta().Slug),
	})
}

// Session returns a live session.
func (e *Engine) Session(id string) (session.Handle, error) {
	return e.sessions.Get(id)
}

// Sessions lists live sessions, oldest first.
func (e *Engine) Sessions() []session.Handle {
	return e.sessions.List()
}

// WithSession runs fn while no other WithSession call holds the same session.
func (e *Engine) WithSession(ctx context.Context, id string, fn func(context.Context, session.Handle) error) error {
	return e.sessions.WithLock(ctx, id, fn)
}

// CloseSession tears a session down and forgets it.
func (e *Engine) CloseSession(ctx context.Context, id string) error {
	return e.sessions.Delete(ctx, id)
}

// Trace builds a whole trace synchronously, without creating a session.
func (e *Engine) Trace(ctx context.Context, name string, values params.Values, seed int64) ([]domain.Step[any], error) {
	alg, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}
	steps, err := alg.BuildTrace(ctx, values, seed)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", alg.Meta().Slug, err)
	}
	return steps, nil
}

// Close tears down every live session.
func (e *Engine) Close() {
	e.sessions.Close()
}
