package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/ynab"
)

func newRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Credit card rewards tracker",
	}
	cmd.AddCommand(newRewardsBestCmd())
	cmd.AddCommand(newRewardsReportCmd())
	return cmd
}

func newRewardsBestCmd() *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "best <category>",
		Short: "Rank the configured cards for a purchase category",
		Example: `  autopilot rewards best dining
  autopilot rewards best groceries --amount 120`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewardsBest(cmd.Context(), cmd.OutOrStdout(), args[0], amount)
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Purchase amount in dollars; shows the reward for each card")
	return cmd
}

func runRewardsBest(ctx context.Context, out io.Writer, category string, amount float64) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tracker, err := a.rewardsTracker()
	if err != nil {
		return err
	}
	category = strings.ToLower(strings.TrimSpace(category))
	ranked, err := tracker.Best(category)
	if err != nil {
		return err
	}
	return printRanking(out, tracker, category, ranked, decimal.NewFromFloat(amount))
}

func printRanking(out io.Writer, tracker *rewards.Tracker, category string, ranked []rewards.Ranked, amount decimal.Decimal) error {
	known := false
	for _, c := range tracker.Categories() {
		if c == category {
			known = true
			break
		}
	}
	if !known {
		fmt.Fprintf(out, "%q is not a configured category, using base rates (known: %s)\n\n",
			category, strings.Join(tracker.Categories(), ", "))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CARD\tRATE\tRETURN\tEARNED")
	for _, r := range ranked {
		earned := "-"
		if amount.IsPositive() {
			earned = rewards.FormatDollars(amount.Mul(r.Return))
		}
		fmt.Fprintf(w, "%s\t%sx\t%s\t%s\n", r.Card.Name, r.Rate.String(), rewards.FormatPercent(r.Return), earned)
	}
	return w.Flush()
}

func newRewardsReportCmd() *cobra.Command {
	var (
		since  string
		misses int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report rewards earned and missed on YNAB transactions",
		Long: `Read YNAB transactions since a date, work out what each card earned,
and what would have been earned had the best card been used every time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewardsReport(cmd.Context(), cmd.OutOrStdout(), since, misses)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "First day to include, YYYY-MM-DD (default: first of the current month)")
	cmd.Flags().IntVar(&misses, "misses", 10, "Number of largest missed rewards to list")
	return cmd
}

func runRewardsReport(ctx context.Context, out io.Writer, since string, misses int) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := reportStart(since, time.Now().In(a.location()))
	if err != nil {
		return err
	}

	tracker, err := a.rewardsTracker()
	if err != nil {
		return err
	}
	if len(tracker.Cards()) == 0 {
		return rewards.ErrNoCards
	}
	client, err := a.ynabClient()
	if err != nil {
		return err
	}

	txns, err := client.Transactions(ctx, a.cfg.YNAB.BudgetID, start)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	report := tracker.Report(txns)
	fmt.Fprintf(out, "Rewards since %s\n\n", start.Format(ynab.DateFormat))
	return printRewardsReport(out, report, misses)
}

func reportStart(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(ynab.DateFormat, since)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q, want YYYY-MM-DD", since)
	}
	return t, nil
}

func printRewardsReport(out io.Writer, report rewards.Report, misses int) error {
	fmt.Fprintf(out, "%d card transactions, %s spent, %s earned, %s missed\n\n",
		report.Transactions,
		rewards.FormatDollars(report.Spend),
		rewards.FormatDollars(report.Earned),
		rewards.FormatDollars(report.Missed))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CARD\tTXNS\tSPEND\tEARNED\tMISSED\tANNUAL FEE")
	for _, c := range report.Cards {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", c.Card, c.Transactions,
			rewards.FormatDollars(c.Spend), rewards.FormatDollars(c.Earned),
			rewards.FormatDollars(c.Missed), rewards.FormatDollars(c.AnnualFee))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CATEGORY\tSPEND\tEARNED\tBEST CARD\tBEST\tMISSED")
	for _, c := range report.Categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Category,
			rewards.FormatDollars(c.Spend), rewards.FormatDollars(c.Earned),
			c.BestCard, rewards.FormatDollars(c.BestEarned), rewards.FormatDollars(c.Missed))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if misses <= 0 || len(report.Misses) == 0 {
		return nil
	}
	if len(report.Misses) < misses {
		misses = len(report.Misses)
	}
	fmt.Fprintf(out, "\nLargest misses\n")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPAYEE\tAMOUNT\tUSED\tBEST\tMISSED")
	for _, m := range report.Misses[:misses] {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.Date, m.Payee,
			rewards.FormatDollars(m.Amount), m.Used, m.Best, rewards.FormatDollars(m.Missed))
	}
	return w.Flush()
}
