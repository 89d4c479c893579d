// Package middleware wraps trace caches with extra behaviour.
package middleware

import "github.com/aretw0/mlens/pkg/ports"

// Middleware allows wrapping a TraceCache to add behavior.
type Middleware func(ports.TraceCache) ports.TraceCache

// Chain applies mws in order: the first one is the outermost.
func Chain(cache ports.TraceCache, mws ...Middleware) ports.TraceCache {
	for i := len(mws) - 1; i >= 0; i-- {
		cache = mws[i](cache)
	}
	return cache
}
