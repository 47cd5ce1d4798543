package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/ynab"
)

// Options are the upstream clients available to MCP tools. Only YNAB is
// required; tools for a missing client are not registered.
type Options struct {
	YNAB     *ynab.Client
	BudgetID string
	Todoist  *todoist.Client
	Rewards  *rewards.Tracker
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ynab        *ynab.Client
	budgetID    string
	todoist     *todoist.Client
	rewards     *rewards.Tracker
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.YNAB == nil {
		return nil, errors.New("a YNAB client is required")
	}
	if opts.BudgetID == "" {
		opts.BudgetID = ynab.LastUsedBudget
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		ynab:     opts.YNAB,
		budgetID: opts.BudgetID,
		todoist:  opts.Todoist,
		rewards:  opts.Rewards,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// YNAB returns the YNAB client.
func (sc *ServerContext) YNAB() *ynab.Client {
	return sc.ynab
}

// BudgetID returns budget when it is set and the configured default budget
// otherwise.
func (sc *ServerContext) BudgetID(budget string) string {
	if budget != "" {
		return budget
	}
	return sc.budgetID
}

// Todoist returns the Todoist client, or nil when none is configured.
func (sc *ServerContext) Todoist() *todoist.Client {
	return sc.todoist
}

// Rewards returns the rewards tracker, or nil when no cards are configured.
func (sc *ServerContext) Rewards() *rewards.Tracker {
	return sc.rewards
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger used by tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
