package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable HTTP endpoint.
const MCPEndpoint = "/mcp"

// MCPRoutes are the paths served by MCPHTTPServer, used as metric labels.
var MCPRoutes = append([]string{MCPEndpoint}, HealthRoutes...)

// MCPHTTPOptions configure an MCPHTTPServer.
type MCPHTTPOptions struct {
	// DisableStreaming answers every request with a single JSON response.
	DisableStreaming bool

	// Health serves the probe endpoints; a checker without shutdown state is
	// created when nil.
	Health *HealthChecker

	// Metrics records http_requests_total; nil disables recording.
	Metrics *instrumentation.Metrics
}

// MCPHTTPServer serves an MCP server over the streamable HTTP transport,
// next to the health endpoints. It is meant for a trusted network: there is
// no authentication in front of /mcp.
type MCPHTTPServer struct {
	handler http.Handler
	health  *HealthChecker

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewMCPHTTPServer wraps mcpSrv.
func NewMCPHTTPServer(mcpSrv *mcpserver.MCPServer, opts MCPHTTPOptions) *MCPHTTPServer {
	if opts.Health == nil {
		opts.Health = NewHealthChecker(nil, "")
	}

	streamOpts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpoint),
	}
	if opts.DisableStreaming {
		streamOpts = append(streamOpts, mcpserver.WithDisableStreaming(true))
	}

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(mcpSrv, streamOpts...))
	opts.Health.RegisterHealthEndpoints(mux)

	return &MCPHTTPServer{
		handler: HTTPMetrics(opts.Metrics, MCPRoutes, mux),
		health:  opts.Health,
	}
}

// Handler returns the routed handler, mainly for tests.
func (s *MCPHTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and serves until Shutdown.
func (s *MCPHTTPServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal is Start, closing ready once the listener is bound.
func (s *MCPHTTPServer) StartWithReadySignal(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	if ready != nil {
		close(ready)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once started.
func (s *MCPHTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown marks the server not ready and stops it gracefully.
func (s *MCPHTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
