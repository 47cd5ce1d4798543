package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/server"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html.tmpl").
	Funcs(template.FuncMap{
		"neg":     func(m Money) bool { return m.Milliunits < 0 },
		"percent": func(share float64) template.CSS { return template.CSS(fmt.Sprintf("%.1f%%", share)) },
	}).
	ParseFS(templateFS, "templates/dashboard.html.tmpl"))

// Routes are the dashboard paths, used as metric labels.
var Routes = append([]string{"/", "/api/summary", "/api/accounts", "/api/categories", "/api/spending"}, server.HealthRoutes...)

// ServerOptions configure a Server.
type ServerOptions struct {
	Addr    string
	Version string
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	svc     *Service
	health  *server.HealthChecker
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	addr string
	srv  *http.Server
	down bool
}

// NewServer creates a dashboard server for svc.
func NewServer(svc *Service, opts ServerOptions) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8081"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		metrics: opts.Metrics,
		logger:  logging.WithService(opts.Logger, "dashboard"),
		addr:    opts.Addr,
	}
	s.health = server.NewHealthChecker(s, opts.Version)
	return s
}

// IsShutdown reports whether Run is shutting down.
func (s *Server) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

// Health returns the health checker so callers can register readiness checks.
func (s *Server) Health() *server.HealthChecker {
	return s.health
}

// Addr returns the listen address; after Run has bound it is the actual address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the dashboard routes wrapped in request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/spending", s.handleSpending)
	s.health.RegisterHealthEndpoints(mux)
	return server.HTTPMetrics(s.metrics, Routes, mux)
}

// Run serves until ctx is done, then shuts down gracefully. ready, when not
// nil, is closed once the listener is bound.
func (s *Server) Run(ctx context.Context, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("dashboard listening", slog.String("addr", s.Addr()))
	if ready != nil {
		close(ready)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.down = true
	s.mu.Unlock()
	s.health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type pageView struct {
	Month    string
	Prev     string
	Next     string
	Snapshot *Snapshot
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	month, _ := time.Parse("2006-01", snap.Month)
	current, _ := s.svc.ResolveMonth("")
	v := pageView{
		Month:    snap.Month,
		Prev:     month.AddDate(0, -1, 0).Format("2006-01"),
		Snapshot: snap,
	}
	if month.Before(current) {
		v.Next = month.AddDate(0, 1, 0).Format("2006-01")
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		s.logger.Error("failed to render dashboard", logging.Err(err))
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"month":     snap.Month,
			"net_worth": snap.NetWorth,
			"accounts":  snap.Accounts,
		})
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"month":      snap.Month,
			"categories": snap.Categories,
			"overspent":  snap.Overspent,
		})
	}
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"month":    snap.Month,
			"spent":    snap.Totals.Spent,
			"spending": snap.TopSpending,
		})
	}
}

// snapshot loads the snapshot for the request's month and writes the error
// response itself when that fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*Snapshot, bool) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if _, err := s.svc.ResolveMonth(month); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	snap, err := s.svc.Snapshot(r.Context(), month)
	if err != nil {
		s.logger.Warn("snapshot failed", logging.Err(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to load budget data"})
		return nil, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
