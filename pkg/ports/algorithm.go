package ports

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// Definition is an algorithm plug-in. C is its immutable configuration and S
// the state carried by each step. Implementations must not keep mutable
// package-level state: Steps is a pure function of cfg.
type Definition[C any, S any] interface {
	Meta() domain.Meta
	Params() params.Schema

	// Config builds a configuration from resolved values. All randomness and
	// identifiers come from src.
	Config(values params.Values, src *domain.Source) (C, error)

	// InitialStep returns the head of every trace for cfg.
	InitialStep(cfg C) domain.Step[S]

	// Steps simulates the algorithm to termination. The returned trace starts
	// with initial and is never modified afterwards.
	Steps(ctx context.Context, cfg C, initial domain.Step[S]) ([]domain.Step[S], error)
}

// CacheNamespacer is implemented by definitions whose traces depend on more
// than their configuration. The namespace becomes part of every cache key.
type CacheNamespacer interface {
	CacheNamespace() string
}

// Algorithm is a registered, type-erased algorithm.
type Algorithm interface {
	Meta() domain.Meta
	Params() params.Schema

	// NewSession resolves values, builds a configuration and returns a
	// navigator in the configuring state.
	NewSession(values params.Values, cfg SessionConfig) (Session, error)

	// BuildTrace resolves values and builds the whole trace synchronously.
	BuildTrace(ctx context.Context, values params.Values, seed int64) ([]domain.Step[any], error)
}

// SessionConfig carries per-session settings. Zero values select defaults.
type SessionConfig struct {
	Seed         int64
	TickInterval time.Duration
	Cache        TraceCache
	Hooks        domain.LifecycleHooks
	Logger       *slog.Logger
}

// Session drives one algorithm instance. Navigation methods are no-ops
// outside the running state.
type Session interface {
	Meta() domain.Meta

	// Start begins building the trace in the background. It is a no-op while
	// loading or running.
	Start(ctx context.Context)
	// Wait blocks until the current build finishes and returns its error.
	Wait(ctx context.Context) error

	Forward()
	Backward()
	Goto(index int)
	Reset()
	Play()
	Pause()
	Stop()

	// Reconfigure replaces the configuration and returns to configuring.
	Reconfigure(values params.Values, seed int64) error

	Values() params.Values
	Seed() int64
	View() domain.View
	Trace() []domain.Step[any]

	// Subscribe streams a view after every change until cancel is called.
	Subscribe() (<-chan domain.View, func())

	// Close tears the session down. Pending builds and ticks become inert.
	Close()
}
