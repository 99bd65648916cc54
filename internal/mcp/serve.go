// ABOUTME: Stdio MCP server lifecycle shared by the CLI and cmd/server
// ABOUTME: Stops on context cancellation and cancels background poster lookups
package mcp

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/app"
)

// ServerName is reported to MCP clients
const ServerName = "Tierworks"

// Serve runs the MCP server on stdio until ctx is done or the transport fails
func Serve(ctx context.Context, a *app.App, version string) error {
	server := mcpserver.NewMCPServer(ServerName, version)
	handlers := RegisterTools(server, a)
	defer handlers.Shutdown()

	a.Logger.Info("MCP server starting on stdio", zap.String("version", version))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
