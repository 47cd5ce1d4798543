package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/autopilot/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		addr          string
		metricsConfig MetricsConfig
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the YNAB budget dashboard",
		Long: `Serve a budget dashboard over YNAB: net worth, overspent categories,
top spending and month totals as an HTML page, plus JSON endpoints:

  GET /                     dashboard page (?month=YYYY-MM)
  GET /api/summary          full month snapshot
  GET /api/accounts         accounts and net worth
  GET /api/categories       categories and overspent
  GET /api/spending         top spending categories
  GET /healthz, /readyz     probes

YNAB responses are cached per month (dashboard.cache-ttl, default 5m).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), addr, metricsConfig)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: dashboard.addr from config, :8081)")
	addMetricsFlags(cmd, &metricsConfig)
	return cmd
}

func runDashboard(ctx context.Context, addr string, metricsConfig MetricsConfig) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := a.ynabClient()
	if err != nil {
		return err
	}

	metricsServer, err := startMetricsServer(metricsConfig, a.provider, a.logger)
	if err != nil {
		return err
	}
	defer stopMetricsServer(metricsServer, a.logger)

	if addr == "" {
		addr = a.cfg.Dashboard.Addr
	}
	svc := dashboard.NewService(client, dashboard.Options{
		BudgetID: a.cfg.YNAB.BudgetID,
		CacheTTL: a.cfg.Dashboard.CacheTTL.Std(),
		Location: a.location(),
		Metrics:  a.metrics(),
		Logger:   a.logger,
	})
	srv := dashboard.NewServer(svc, dashboard.ServerOptions{
		Addr:    addr,
		Version: version,
		Metrics: a.metrics(),
		Logger:  a.logger,
	})
	return srv.Run(ctx, nil)
}
