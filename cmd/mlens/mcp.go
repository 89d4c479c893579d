package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/mlens/internal/cli"
	"github.com/aretw0/mlens/internal/logging"
	"github.com/aretw0/mlens/pkg/adapters/mcp"
	"github.com/aretw0/mlens/pkg/observability"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts mlens as an MCP Server so AI agents can create and navigate
algorithm sessions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		// Logs stay on Stderr so they never corrupt JSON-RPC on Stdout.
		logger := logging.NewWithFormat(os.Stderr, level, logging.Format(cfg.Log.Format))
		log.SetOutput(os.Stderr)

		engine, cleanup, err := cli.NewEngine(cfg, cli.EngineOptions{
			Logger: logger,
			Hooks:  observability.LogHooks(logger),
		})
		if err != nil {
			return err
		}
		defer cleanup()

		srv := mcp.NewServer(engine, logger)

		switch transport {
		case "stdio":
			logger.Info("Starting mlens MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting mlens MCP Server (SSE)", "port", port)

			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
