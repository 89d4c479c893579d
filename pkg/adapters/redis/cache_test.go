package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/mlens/pkg/adapters/redis"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := newClient(t)
	tests.RunTraceCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	cache := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "kmeans-abc", []byte("[]")))

	keys, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "kmeans-abc")

	mr.FastForward(2 * time.Second)

	_, err = cache.Get(ctx, "kmeans-abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, client := newClient(t)
	cache := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("custom:app:k"), "expected key with custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "expected index with custom prefix")
	assert.NoError(t, cache.Ping(ctx))
}
