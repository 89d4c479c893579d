package domain

import (
	"math/rand"
	"strconv"
	"sync"
)

// Sequence hands out identifiers unique within one configuration.
// Each configuration owns its own Sequence, so repeated or concurrent
// runs never share counters.
type Sequence struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{counters: make(map[string]int)}
}

// Next returns the next identifier for the prefix: "point-0", "point-1", ...
func (s *Sequence) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.counters[prefix]
	s.counters[prefix] = n + 1
	return prefix + "-" + strconv.Itoa(n)
}

// Source is the randomness and identifier supply of a single configuration.
// Builders draw from it only while producing a config, never while stepping.
type Source struct {
	Seed int64
	Rand *rand.Rand
	IDs  *Sequence
}

// NewSource returns a deterministic source for the seed.
func NewSource(seed int64) *Source {
	return &Source{
		Seed: seed,
		Rand: rand.New(rand.NewSource(seed)),
		IDs:  NewSequence(),
	}
}
