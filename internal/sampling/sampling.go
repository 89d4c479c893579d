// Package sampling generates random point sets with a minimum spacing using
// bounded rejection sampling.
package sampling

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/aretw0/mlens/pkg/domain"
)

// DefaultMaxAttempts bounds the candidates drawn for a single point.
const DefaultMaxAttempts = 1000

// ErrSamplingExhausted is returned when no candidate satisfied the spacing
// constraint within the attempt budget (the requested density is too high).
var ErrSamplingExhausted = fmt.Errorf("%w: rejection sampling exhausted", domain.ErrConfiguration)

// ErrInvalidRequest is returned for negative counts or non-positive attempt budgets.
var ErrInvalidRequest = errors.New("sampling: invalid request")

// Sampler draws candidates from a generator and keeps the ones far enough from
// every accepted point.
type Sampler[P any] struct {
	Rand        *rand.Rand
	MaxAttempts int
	MinDistance float64
	Generate    func(r *rand.Rand) P
	Distance    func(a, b P) float64
}

// Sample returns n accepted points in acceptance order.
func (s Sampler[P]) Sample(n int) ([]P, error) {
	attempts := s.MaxAttempts
	if attempts == 0 {
		attempts = DefaultMaxAttempts
	}
	if n < 0 || attempts < 0 {
		return nil, ErrInvalidRequest
	}

	out := make([]P, 0, n)
	for len(out) < n {
		p, ok := s.next(out, attempts)
		if !ok {
			return nil, fmt.Errorf("%w: placed %d of %d points with spacing %v", ErrSamplingExhausted, len(out), n, s.MinDistance)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s Sampler[P]) next(accepted []P, attempts int) (P, bool) {
	var zero P
	for i := 0; i < attempts; i++ {
		c := s.Generate(s.Rand)
		if s.farEnough(c, accepted) {
			return c, true
		}
	}
	return zero, false
}

func (s Sampler[P]) farEnough(c P, accepted []P) bool {
	if s.MinDistance <= 0 || s.Distance == nil {
		return true
	}
	for _, p := range accepted {
		if s.Distance(c, p) < s.MinDistance {
			return false
		}
	}
	return true
}

// GridCoords3D returns a generator of integer coordinates in [0, size) on each axis.
func GridCoords3D(size int) func(*rand.Rand) domain.Coords3D {
	return func(r *rand.Rand) domain.Coords3D {
		return domain.Coords3D{
			X: float64(r.Intn(size)),
			Y: float64(r.Intn(size)),
			Z: float64(r.Intn(size)),
		}
	}
}

// Distance3D adapts Coords3D.Distance for samplers.
func Distance3D(a, b domain.Coords3D) float64 {
	return a.Distance(b)
}
