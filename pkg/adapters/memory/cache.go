package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/aretw0/mlens/pkg/domain"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache implements ports.TraceCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]entry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL expires entries after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// NewCache creates a new in-memory trace cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores a copy of data.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	e := entry{data: bytes.Clone(data)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = e
	return nil
}

// Get returns a copy so callers cannot mutate cached bytes.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.expired(e) {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(e.data), nil
}

// Delete removes the entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// List returns live keys and drops expired ones.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.data))
	for k, e := range c.data {
		if c.expired(e) {
			delete(c.data, k)
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (c *Cache) expired(e entry) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}
