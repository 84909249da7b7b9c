package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	monkeytools "github.com/inf-monkeys/monkey-tools-text"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes every tool to MCP clients. Tool arguments follow the same
schema as the HTTP API.

Supported transports:
- stdio (default): JSON-RPC over standard input and output. Logs go to stderr.
- sse: Server-Sent Events over HTTP at /sse and /message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transport, _ := cmd.Flags().GetString("transport")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}

		app, err := newApp(ctx, cmd, nil)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = app.Close(closeCtx)
		}()

		srv, err := mcp.NewServer(app.Dispatcher, monkeytools.Version, app.Config.Server.Namespace, app.Logger)
		if err != nil {
			return err
		}

		if transport == "stdio" {
			app.Logger.Info("starting MCP server", "transport", transport)
			return srv.ServeStdio()
		}

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)
		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", port)
		}
		app.Logger.Info("starting MCP server", "transport", transport, "addr", addr)
		if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
			return err
		}
		app.Logger.Info("MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol: stdio or sse")
	mcpCmd.Flags().Int("port", 8891, "Port to listen on (sse only)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
