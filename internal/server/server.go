// Package server exposes the composed tool pipeline over MCP.
//
// This is the protocol boundary: it publishes each registered entry's
// published schema (never the wrapped tool's native parameters), seeds the
// correlation context from request metadata, and converts pipeline failures
// into the standard MCP error envelope. All logging of failures happens
// inside the pipeline before errors reach this layer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

// correlationMetaKey is the request metadata field callers use to supply
// their own correlation id.
const correlationMetaKey = "correlationId"

// Server wraps the pipeline composer and exposes it as an MCP server.
type Server struct {
	composer  *pipeline.Composer
	logger    *slog.Logger
	metrics   http.Handler
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler mounts a /metrics endpoint in SSE mode.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates an MCP server publishing every entry registered on the
// composer.
func New(name, version string, composer *pipeline.Composer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		composer: composer,
		logger:   logger,
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	for _, entry := range s.composer.Entries() {
		s.mcpServer.AddTool(toolDefinition(entry), s.handleTool(entry))
	}
}

// handleTool routes one MCP call into the wrapped pipeline handler. The
// pipeline raises plain errors; this layer alone converts them to the
// isError response envelope.
func (s *Server) handleTool(entry *pipeline.Entry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, _ = pipeline.EnsureID(ctx, callerCorrelationID(request))

		out, err := entry.Invoke(ctx, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, merr := json.Marshal(out)
		if merr != nil {
			return mcp.NewToolResultText(fmt.Sprintf("%v", out)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// callerCorrelationID extracts the caller-supplied correlation id from
// request metadata, if present.
func callerCorrelationID(request mcp.CallToolRequest) string {
	meta := request.Params.Meta
	if meta == nil {
		return ""
	}
	id, _ := meta.AdditionalFields[correlationMetaKey].(string)
	return id
}

// toolDefinition builds the client-facing MCP tool from the entry's
// PUBLISHED schema. Batch entries therefore expose only the items parameter
// (plus the optional shared context), never the per-item parameters.
func toolDefinition(entry *pipeline.Entry) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(entry.Description())}
	for _, p := range entry.Published() {
		opts = append(opts, propertyOption(p))
	}
	return mcp.NewTool(entry.Name(), opts...)
}

func propertyOption(p schema.Param) mcp.ToolOption {
	var popts []mcp.PropertyOption
	if p.Required {
		popts = append(popts, mcp.Required())
	}
	if p.Description != "" {
		popts = append(popts, mcp.Description(p.Description))
	}

	switch t := schema.Unwrap(p.Type).(type) {
	case *schema.IntType, *schema.FloatType:
		if n, ok := numericDefault(p.Default); ok {
			popts = append(popts, mcp.DefaultNumber(n))
		}
		return mcp.WithNumber(p.Name, popts...)
	case *schema.BoolType:
		if b, ok := p.Default.(bool); ok {
			popts = append(popts, mcp.DefaultBool(b))
		}
		return mcp.WithBoolean(p.Name, popts...)
	case *schema.SliceType:
		popts = append(popts, mcp.Items(itemsSchema(t.Elem())))
		return mcp.WithArray(p.Name, popts...)
	case *schema.MapType:
		return mcp.WithObject(p.Name, popts...)
	default:
		if str, ok := p.Default.(string); ok {
			popts = append(popts, mcp.DefaultString(str))
		}
		return mcp.WithString(p.Name, popts...)
	}
}

func itemsSchema(elem schema.Type) map[string]any {
	switch schema.Unwrap(elem).(type) {
	case *schema.IntType, *schema.FloatType:
		return map[string]any{"type": "number"}
	case *schema.BoolType:
		return map[string]any{"type": "boolean"}
	case *schema.MapType:
		return map[string]any{"type": "object"}
	case *schema.StringType:
		return map[string]any{"type": "string"}
	default:
		return map[string]any{}
	}
}

func numericDefault(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
