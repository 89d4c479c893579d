package navigator

import (
	"errors"
	"slices"

	"github.com/aretw0/mlens/pkg/domain"
)

// ErrStepsAlreadySet is returned when a trace lands twice without a reset in between.
var ErrStepsAlreadySet = errors.New("steps already set for this run")

// Container holds the configuration and trace of one algorithm instance.
// The trace is written once per run and read-only afterwards.
// Container is not safe for concurrent use; Navigator guards it.
type Container[C any, S any] struct {
	config  C
	initial domain.Step[S]
	steps   []domain.Step[S]
	filled  bool
}

// NewContainer returns a container holding only the initial step.
func NewContainer[C any, S any](cfg C, initial domain.Step[S]) *Container[C, S] {
	c := &Container[C, S]{}
	c.Reset(cfg, initial)
	return c
}

// Reset stores cfg and replaces the trace with [initial].
func (c *Container[C, S]) Reset(cfg C, initial domain.Step[S]) {
	c.config = cfg
	c.initial = initial
	c.steps = []domain.Step[S]{initial}
	c.filled = false
}

// SetSteps lands a complete trace. It may be called once per Reset.
func (c *Container[C, S]) SetSteps(steps []domain.Step[S]) error {
	if c.filled {
		return ErrStepsAlreadySet
	}
	if err := domain.ValidateTrace(steps); err != nil {
		return err
	}
	c.steps = slices.Clip(steps)
	c.filled = true
	return nil
}

// Config returns the current configuration.
func (c *Container[C, S]) Config() C { return c.config }

// Initial returns the initial step of the current configuration.
func (c *Container[C, S]) Initial() domain.Step[S] { return c.initial }

// Filled reports whether a full trace has landed since the last Reset.
func (c *Container[C, S]) Filled() bool { return c.filled }

// Len returns the trace length. It is at least 1.
func (c *Container[C, S]) Len() int { return len(c.steps) }

// At returns the step at i. The caller keeps i in range.
func (c *Container[C, S]) At(i int) domain.Step[S] { return c.steps[i] }

// Steps returns the trace. Callers must not modify it.
func (c *Container[C, S]) Steps() []domain.Step[S] { return c.steps }
