package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/metrics"
	"github.com/ragline/ragline/internal/server"
	"github.com/ragline/ragline/internal/tools"
	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Starts ragline as an MCP server.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Fatalf("Error in config: %v", err)
		}
		logger := logging.New(level)

		sink, err := logsink.New(cfg.Destinations, logger)
		if err != nil {
			log.Fatalf("Error opening log destination: %v", err)
		}
		defer sink.Close()

		store, err := tools.NewDocStore(filepath.Join(cfg.DataDir, "documents.db"))
		if err != nil {
			log.Fatalf("Error opening document store: %v", err)
		}
		defer store.Close()

		collector := metrics.New()
		composer := pipeline.New(
			pipeline.NewRecorder(sink, logger),
			logger,
			pipeline.WithObserver(collector.ObserveToolCall),
		)
		if err := tools.RegisterAll(composer, store); err != nil {
			log.Fatalf("Error registering tools: %v", err)
		}

		srv := server.New(cfg.Server.Name, version, composer, logger,
			server.WithMetricsHandler(collector.Handler()))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	serveCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
