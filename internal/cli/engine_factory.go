package cli

import (
	"compress/gzip"
	"fmt"
	"log/slog"

	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/internal/config"
	"github.com/aretw0/mlens/pkg/adapters/memory"
	"github.com/aretw0/mlens/pkg/adapters/redis"
	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/persistence/middleware"
	"github.com/aretw0/mlens/pkg/ports"
)

// EngineOptions tunes NewEngine beyond the configuration file.
type EngineOptions struct {
	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

// NewEngine builds an mlens engine from the configuration: trace cache
// backend, boosting backend and auto-play interval. The returned cleanup
// closes the engine and releases the cache connection.
func NewEngine(cfg config.Config, opts EngineOptions) (*mlens.Engine, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = createLogger(cfg.Log.Level, cfg.Log.Format)
	}

	cache, closeCache, err := newCache(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := []mlens.Option{
		mlens.WithLogger(logger),
		mlens.WithTickInterval(cfg.Server.TickInterval),
		mlens.WithLifecycleHooks(opts.Hooks),
	}
	if cache != nil {
		engineOpts = append(engineOpts, mlens.WithCache(cache))
	}
	if cfg.XGBoost.RemoteURL != "" {
		logger.Info("Using remote booster", "url", cfg.XGBoost.RemoteURL)
		engineOpts = append(engineOpts, mlens.WithBooster(xgboost.NewRemoteBooster(cfg.XGBoost.RemoteURL)))
	}

	engine := mlens.New(engineOpts...)
	cleanup := func() error {
		engine.Close()
		return closeCache()
	}
	return engine, cleanup, nil
}

func newCache(cfg config.CacheConfig) (ports.TraceCache, func() error, error) {
	cache, closeCache, err := newBackend(cfg)
	if err != nil || cache == nil || !cfg.Compress {
		return cache, closeCache, err
	}
	return middleware.Chain(cache, middleware.NewCompressionMiddleware(gzip.BestSpeed)), closeCache, nil
}

func newBackend(cfg config.CacheConfig) (ports.TraceCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheMemory, "":
		return memory.NewCache(), noop, nil
	case config.CacheRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		c := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cache backend %q", config.ErrInvalid, cfg.Backend)
	}
}
