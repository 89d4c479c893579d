package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTraceCacheContract verifies that a TraceCache implementation adheres to the interface contract.
func RunTraceCacheContract(t *testing.T, cache ports.TraceCache) {
	t.Helper()
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Put and Get", func(t *testing.T) {
		payload := []byte(`[{"type":"initial","title":"t","description":"","state":{}}]`)
		require.NoError(t, cache.Put(ctx, key, payload))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("Get Returns Copy", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("abc")))
		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		got[0] = 'z'

		again, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("one")))
		require.NoError(t, cache.Put(ctx, key, []byte("two")))
		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("x")))
		require.NoError(t, cache.Delete(ctx, key))

		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, cache.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1, k2 := key+"-1", key+"-2"
		require.NoError(t, cache.Put(ctx, k1, []byte("1")))
		require.NoError(t, cache.Put(ctx, k2, []byte("2")))
		defer func() {
			_ = cache.Delete(ctx, k1)
			_ = cache.Delete(ctx, k2)
		}()

		keys, err := cache.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
