package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/mlens/internal/cli"
	"github.com/aretw0/mlens/internal/logging"
	httpAdapter "github.com/aretw0/mlens/pkg/adapters/http"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts mlens in server mode, exposing sessions over a JSON API with
server-sent events, Prometheus metrics on /metrics and the boosting service
on /api/xgboost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("cache") {
			cfg.Cache.Backend, _ = cmd.Flags().GetString("cache")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger := logging.NewWithFormat(os.Stderr, level, logging.Format(cfg.Log.Format))

		metrics := observability.NewMetrics(nil)
		engine, cleanup, err := cli.NewEngine(cfg, cli.EngineOptions{
			Logger: logger,
			Hooks:  domain.ComposeHooks(metrics.Hooks(), observability.LogHooks(logger)),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := cleanup(); err != nil {
				logger.Warn("Failed to release engine", "err", err)
			}
		}()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(engine,
				httpAdapter.WithMetrics(metrics.Handler()),
				httpAdapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting mlens server", "addr", srv.Addr, "cache", cfg.Cache.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// SSE streams end once their sessions close, so close them first.
			engine.Close()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("mlens server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().String("cache", "memory", "Trace cache backend: memory, redis or none")
}
