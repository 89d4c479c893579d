// Package registry maps algorithm names to their plug-ins.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
)

// ErrDuplicate is returned when a slug or synonym is already taken.
var ErrDuplicate = fmt.Errorf("registry: duplicate algorithm")

// Registry holds the available algorithms. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]ports.Algorithm
	aliases    map[string]string
	order      []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		algorithms: make(map[string]ports.Algorithm),
		aliases:    make(map[string]string),
	}
}

// Register adds an algorithm under its slug and synonyms.
// Names are case-insensitive. Registering a taken name fails.
func (r *Registry) Register(alg ports.Algorithm) error {
	meta := alg.Meta()
	names := append([]string{meta.Slug}, meta.Synonyms...)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		if owner, ok := r.aliases[normalize(n)]; ok {
			return fmt.Errorf("%w: %q already names %q", ErrDuplicate, n, owner)
		}
	}
	r.algorithms[meta.Slug] = alg
	for _, n := range names {
		r.aliases[normalize(n)] = meta.Slug
	}
	r.order = append(r.order, meta.Slug)
	return nil
}

// MustRegister is Register for static catalogs; it panics on conflicts.
func (r *Registry) MustRegister(algs ...ports.Algorithm) {
	for _, a := range algs {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Get looks up an algorithm by slug or synonym.
// Returns an error wrapping domain.ErrNotFound if the name is unknown.
func (r *Registry) Get(name string) (ports.Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slug, ok := r.aliases[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("algorithm %q: %w", name, domain.ErrNotFound)
	}
	return r.algorithms[slug], nil
}

// List returns all algorithms in registration order.
func (r *Registry) List() []ports.Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Algorithm, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.algorithms[slug])
	}
	return out
}

// Slugs returns the canonical names, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := slices.Clone(r.order)
	slices.Sort(s)
	return s
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
