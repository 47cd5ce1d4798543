package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/resources"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/tools/rewards_tools"
	"github.com/teemow/autopilot/internal/tools/todoist_tools"
	"github.com/teemow/autopilot/internal/tools/ynab_tools"
)

// serveOptions are the flags of the serve command.
type serveOptions struct {
	Transport        string
	HTTPAddr         string
	Yolo             bool
	DisableStreaming bool
	Tools            string
	Metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide YNAB, Todoist
and credit card rewards tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (creating transactions, changing budgets,
  completing and creating tasks).

The HTTP transport has no authentication. Bind it to localhost or a private
network only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", "127.0.0.1:8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Enable write operations. Default is read-only mode.")
	cmd.Flags().BoolVar(&opts.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().StringVar(&opts.Tools, "tools", "", "Comma-separated tool groups to register: ynab, todoist, rewards (default: all configured)")
	addMetricsFlags(cmd, &opts.Metrics)

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	switch opts.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	serverContext, err := newServerContext(shutdownCtx, a)
	if err != nil {
		return err
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("autopilot", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	readOnly := !opts.Yolo
	if readOnly {
		logger.Info("starting server in read-only mode (use --yolo to enable write operations)")
	} else {
		logger.Warn("starting server with write operations enabled (--yolo)")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly, parseCommaSeparatedList(opts.Tools)); err != nil {
		return err
	}
	if err := resources.RegisterResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	if opts.Transport == "stdio" {
		return runStdioServer(mcpSrv)
	}

	metricsServer, err := startMetricsServer(opts.Metrics, a.provider, logger)
	if err != nil {
		return err
	}
	defer stopMetricsServer(metricsServer, logger)

	return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts, logger)
}

// newServerContext builds the tool dependencies from config. YNAB is
// required; Todoist and rewards tools are only registered when configured.
func newServerContext(ctx context.Context, a *app) (*server.ServerContext, error) {
	client, err := a.ynabClient()
	if err != nil {
		return nil, err
	}
	opts := server.Options{YNAB: client, BudgetID: a.cfg.YNAB.BudgetID}

	if a.cfg.Todoist.Token != "" {
		if opts.Todoist, err = a.todoistClient(); err != nil {
			return nil, err
		}
	}

	tracker, err := a.rewardsTracker()
	if err != nil {
		return nil, err
	}
	if len(tracker.Cards()) > 0 {
		opts.Rewards = tracker
	}

	serverContext, err := server.NewServerContext(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	if a.provider.Enabled() {
		serverContext.SetMetrics(a.metrics())
	}
	serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(a.logger, a.instr.AuditLogging))
	return serverContext, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers the named tool groups, or every group when
// groups is empty.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool, groups []string) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "ynab",
			register: func() error {
				return ynab_tools.RegisterYNABTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "todoist",
			register: func() error {
				return todoist_tools.RegisterTodoistTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "rewards",
			register: func() error {
				return rewards_tools.RegisterRewardsTools(mcpSrv, ctx)
			},
		},
	}

	selected := make(map[string]bool, len(groups))
	for _, g := range groups {
		selected[strings.ToLower(g)] = true
	}
	known := make(map[string]bool, len(registrations))
	for _, reg := range registrations {
		known[reg.name] = true
	}
	for g := range selected {
		if !known[g] {
			return fmt.Errorf("unknown tool group %q (supported: ynab, todoist, rewards)", g)
		}
	}

	for _, reg := range registrations {
		if len(selected) > 0 && !selected[reg.name] {
			continue
		}
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, opts serveOptions, logger *slog.Logger) error {
	health := server.NewHealthChecker(serverContext, version)
	httpServer := server.NewMCPHTTPServer(mcpSrv, server.MCPHTTPOptions{
		DisableStreaming: opts.DisableStreaming,
		Health:           health,
		Metrics:          serverContext.Metrics(),
	})

	if !isLoopback(opts.HTTPAddr) {
		logger.Warn("MCP endpoint has no authentication and is not bound to localhost",
			slog.String("addr", opts.HTTPAddr))
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(opts.HTTPAddr); err != nil {
			serverDone <- err
		}
	}()
	logger.Info("streamable HTTP server starting",
		slog.String("addr", opts.HTTPAddr),
		slog.String("endpoint", server.MCPEndpoint))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

func isLoopback(addr string) bool {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	host = strings.Trim(host, "[]")
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
