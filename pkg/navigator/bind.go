package navigator

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
)

// Bind erases the type parameters of a definition so it can live in a registry.
func Bind[C any, S any](def ports.Definition[C, S]) ports.Algorithm {
	return binding[C, S]{def: def}
}

type binding[C any, S any] struct {
	def ports.Definition[C, S]
}

func (b binding[C, S]) Meta() domain.Meta     { return b.def.Meta() }
func (b binding[C, S]) Params() params.Schema { return b.def.Params() }

func (b binding[C, S]) configure(values params.Values, seed int64) (C, params.Values, error) {
	var zero C
	resolved, err := b.def.Params().Resolve(values)
	if err != nil {
		return zero, nil, fmt.Errorf("%s: %w", b.def.Meta().Slug, err)
	}
	cfg, err := b.def.Config(resolved, domain.NewSource(seed))
	if err != nil {
		return zero, nil, fmt.Errorf("%s: %w", b.def.Meta().Slug, err)
	}
	return cfg, resolved, nil
}

// NewSession resolves values and returns a navigator in the configuring state.
func (b binding[C, S]) NewSession(values params.Values, sc ports.SessionConfig) (ports.Session, error) {
	cfg, resolved, err := b.configure(values, sc.Seed)
	if err != nil {
		return nil, err
	}
	nav := New(b.def, cfg,
		WithTickInterval(sc.TickInterval),
		WithCache(sc.Cache),
		WithLifecycleHooks(sc.Hooks),
		WithLogger(sc.Logger),
	)
	return &session[C, S]{Navigator: nav, binding: b, values: resolved, seed: sc.Seed}, nil
}

// BuildTrace builds a trace synchronously, outside any navigator.
func (b binding[C, S]) BuildTrace(ctx context.Context, values params.Values, seed int64) ([]domain.Step[any], error) {
	cfg, _, err := b.configure(values, seed)
	if err != nil {
		return nil, err
	}
	steps, err := b.def.Steps(ctx, cfg, b.def.InitialStep(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.def.Meta().Slug, err)
	}
	if err := domain.ValidateTrace(steps); err != nil {
		return nil, err
	}
	return domain.EraseTrace(steps), nil
}

// session adds parameter bookkeeping on top of a typed navigator.
type session[C any, S any] struct {
	*Navigator[C, S]
	binding binding[C, S]

	mu     sync.Mutex
	values params.Values
	seed   int64
}

func (s *session[C, S]) Reconfigure(values params.Values, seed int64) error {
	cfg, resolved, err := s.binding.configure(values, seed)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values = resolved
	s.seed = seed
	s.mu.Unlock()

	s.Configure(cfg)
	return nil
}

func (s *session[C, S]) Values() params.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

func (s *session[C, S]) Seed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

func (s *session[C, S]) Trace() []domain.Step[any] {
	return domain.EraseTrace(s.Steps())
}
