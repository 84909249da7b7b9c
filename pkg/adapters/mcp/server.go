package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/manifest"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

// Resource URIs.
const (
	ResourceTools    = "monkeytools://tools"
	ResourceManifest = "monkeytools://manifest"
)

// Dispatcher runs tool invocations.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv domain.Invocation) (domain.Output, error)
	Registry() *registry.Registry
}

// Server exposes every registered tool over the Model Context Protocol.
type Server struct {
	dispatcher Dispatcher
	mcpServer  *server.MCPServer
	manifest   manifest.Manifest
	logger     *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(d Dispatcher, version, namespace string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dispatcher: d,
		mcpServer:  server.NewMCPServer("monkey-tools-text", strings.TrimSpace(version), server.WithToolCapabilities(false)),
		manifest:   manifest.New(namespace, "", ""),
		logger:     logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.registerResources()
	return s, nil
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() error {
	for _, d := range s.dispatcher.Registry().List() {
		schema, err := json.Marshal(manifest.InputSchema(d.Inputs))
		if err != nil {
			return fmt.Errorf("input schema of %s: %w", d.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(d.Name, describe(d), schema)
		s.mcpServer.AddTool(tool, s.handle(d.Name))
	}
	return nil
}

func describe(d domain.ToolDescriptor) string {
	if d.Description == "" {
		return d.DisplayName
	}
	if d.DisplayName == "" {
		return d.Description
	}
	return d.DisplayName + ": " + d.Description
}

// handle reports tool failures as error results so the model can react to
// them; only protocol problems are returned as errors.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		out, err := s.dispatcher.Dispatch(ctx, domain.Invocation{ToolName: name, Params: args})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.KindOf(err), err)), nil
		}

		jsonBytes, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ResourceTools, "Tool descriptors",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(ResourceTools, s.dispatcher.Registry().List())
	})

	s.mcpServer.AddResource(mcp.NewResource(ResourceManifest, "Tool service manifest",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(ResourceManifest, s.manifest)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
