package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

func TestMCPHTTPServer_Routes(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("autopilot", "test", mcpserver.WithToolCapabilities(true))
	srv := httptest.NewServer(NewMCPHTTPServer(mcpSrv, MCPHTTPOptions{DisableStreaming: true}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+MCPEndpoint, strings.NewReader(initializeRequest))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"protocolVersion"`)
	assert.Contains(t, string(body), `"autopilot"`)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMCPHTTPServer_StartAndShutdown(t *testing.T) {
	health := NewHealthChecker(shutdownFlag(false), "test")
	s := NewMCPHTTPServer(mcpserver.NewMCPServer("autopilot", "test"), MCPHTTPOptions{Health: health})

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.StartWithReadySignal("127.0.0.1:0", ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	assert.NotEmpty(t, s.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
	assert.False(t, health.IsReady())
}

func TestMCPHTTPServer_ShutdownBeforeStart(t *testing.T) {
	s := NewMCPHTTPServer(mcpserver.NewMCPServer("autopilot", "test"), MCPHTTPOptions{})
	assert.NoError(t, s.Shutdown(context.Background()))
}
