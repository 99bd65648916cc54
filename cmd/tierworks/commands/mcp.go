// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to rank tier lists via stdio
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/config"
	"github.com/harper/tierworks/internal/mcp"
	"github.com/harper/tierworks/internal/metrics"
)

var (
	mcpMetricsAddr string
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Tierworks as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to open ranking sessions, assign items to tiers,
save results and build share links via stdio.

Configure in Claude Desktop's config file to enable tier list tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  tierworks mcp

  # Expose Prometheus metrics while serving
  tierworks mcp --metrics-addr 127.0.0.1:9464

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "tierworks": {
  #       "command": "tierworks",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default: TIERWORKS_METRICS_ADDR)")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := mcpMetricsAddr
	if addr == "" {
		if cfg, err := config.Load(); err == nil {
			addr = cfg.MetricsAddr
		}
	}

	var opts []app.Option
	if addr != "" {
		opts = append(opts, app.WithMetrics(metrics.NewPrometheus(prometheus.DefaultRegisterer, "tierworks")))
	}

	a, err := openApp(opts...)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	if addr != "" {
		metrics.NewServer(addr, prometheus.DefaultGatherer, a.Logger.Named("metrics")).Start(ctx)
	}

	return mcp.Serve(ctx, a, versionInfo.Version)
}
