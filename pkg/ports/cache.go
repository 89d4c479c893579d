package ports

import (
	"context"
)

// TraceCache stores encoded traces so identical configurations skip rebuilding.
// Keys are content addresses of a configuration; values are opaque bytes.
type TraceCache interface {
	// Get retrieves the trace stored under key.
	// Returns domain.ErrNotFound if nothing is cached.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the trace under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently cached.
	List(ctx context.Context) ([]string, error)
}
