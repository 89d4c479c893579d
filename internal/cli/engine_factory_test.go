package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/mlens/internal/config"
	"github.com/aretw0/mlens/pkg/adapters/memory"
	"github.com/aretw0/mlens/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_Backends(t *testing.T) {
	cache, closeCache, err := newCache(config.CacheConfig{Backend: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.NoError(t, closeCache())

	cache, _, err = newCache(config.CacheConfig{Backend: config.CacheMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Cache{}, cache)

	_, _, err = newCache(config.CacheConfig{Backend: "disk"})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewCache_RedisCompressed(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default().Cache
	cfg.Backend = config.CacheRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Compress = true

	cache, closeCache, err := newCache(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeCache()) }()
	_, plain := cache.(*redis.Cache)
	assert.False(t, plain, "wrapped by the compression middleware")

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "abc", []byte("trace")))
	got, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("trace"), got)

	raw, err := mr.Get(cfg.Redis.Prefix + "abc")
	require.NoError(t, err)
	assert.NotEqual(t, "trace", raw)
}

func TestNewEngine_Sessions(t *testing.T) {
	cfg := quietConfig()
	cfg.Cache.Backend = config.CacheNone
	engine, cleanup, err := NewEngine(cfg, EngineOptions{})
	require.NoError(t, err)

	h, err := engine.NewSession("knn", nil, 1)
	require.NoError(t, err)
	h.Session.Start(context.Background())
	require.NoError(t, h.Session.Wait(context.Background()))
	assert.Greater(t, h.Session.View().Total, 1)

	require.NoError(t, cleanup())
	assert.Empty(t, engine.Sessions())
}
