package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/ynab"
)

// Defaults for Options.
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultTopN         = 10
	DefaultFetchTimeout = 30 * time.Second
)

// Budget is the subset of the YNAB client the dashboard reads.
type Budget interface {
	Accounts(ctx context.Context, budgetID string) ([]ynab.Account, error)
	Month(ctx context.Context, budgetID, month string) (*ynab.Month, error)
	Transactions(ctx context.Context, budgetID string, since time.Time) ([]ynab.Transaction, error)
}

// Options configure a Service.
type Options struct {
	BudgetID string
	CacheTTL time.Duration
	// FetchTimeout bounds one YNAB fetch. The fetch is shared by every
	// request waiting on the month and outlives any single request.
	FetchTimeout time.Duration
	TopN         int
	Location *time.Location
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service builds and caches dashboard snapshots.
type Service struct {
	budget   Budget
	budgetID string
	topN     int
	timeout  time.Duration
	loc      *time.Location
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	now      func() time.Time
	cache    *cache
}

// NewService creates a Service over budget.
func NewService(budget Budget, opts Options) *Service {
	if opts.BudgetID == "" {
		opts.BudgetID = ynab.LastUsedBudget
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		budget:   budget,
		budgetID: opts.BudgetID,
		topN:     opts.TopN,
		timeout:  opts.FetchTimeout,
		loc:      opts.Location,
		metrics:  opts.Metrics,
		logger:   logging.WithOperation(opts.Logger, "dashboard.snapshot"),
		now:      opts.Now,
		cache:    newCache(opts.CacheTTL, opts.Now),
	}
}

// ResolveMonth parses a month query value. "" and "current" mean the current
// month in the service's time zone. The result is the first of the month.
func (s *Service) ResolveMonth(month string) (time.Time, error) {
	switch month {
	case "", "current":
		now := s.now().In(s.loc)
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	return t, nil
}

// Snapshot returns the dashboard for month, served from cache when fresh.
func (s *Service) Snapshot(ctx context.Context, month string) (*Snapshot, error) {
	start, err := s.ResolveMonth(month)
	if err != nil {
		return nil, err
	}
	key := start.Format("2006-01")

	snap, hit, err := s.cache.get(key, func() (*Snapshot, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fetchCtx, start)
	})
	s.metrics.RecordCacheLookup(ctx, hit)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Invalidate drops every cached snapshot.
func (s *Service) Invalidate() {
	s.cache.clear()
}

func (s *Service) fetch(ctx context.Context, month time.Time) (*Snapshot, error) {
	started := s.now()

	var (
		accounts []ynab.Account
		m        *ynab.Month
		txns     []ynab.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.budget.Accounts(gctx, s.budgetID)
		if err != nil {
			return fmt.Errorf("failed to fetch accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		m, err = s.budget.Month(gctx, s.budgetID, month.Format(ynab.DateFormat))
		if err != nil {
			return fmt.Errorf("failed to fetch month: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txns, err = s.budget.Transactions(gctx, s.budgetID, month)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("snapshot fetch failed", logging.Err(err))
		return nil, err
	}

	snap := Build(month, accounts, m, txns, s.topN, s.now())
	s.logger.Debug("snapshot built",
		slog.String("month", snap.Month),
		slog.Int("accounts", len(snap.Accounts)),
		slog.Int("transactions", len(txns)),
		slog.Duration("duration", s.now().Sub(started)))
	return snap, nil
}
