package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/replies"
	"github.com/teemow/autopilot/internal/reviewer"
	"github.com/teemow/autopilot/internal/store"
)

func newRepliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replies",
		Short: "Daily review reply commands",
	}
	cmd.AddCommand(newRepliesPollCmd())
	return cmd
}

func newRepliesPollCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Execute commands sent as replies to the daily review",
		Long: `Search Gmail for your replies to the daily review email, execute the
commands in them against Todoist, and send a confirmation for each reply.

Commands, one per line:
  done 3, complete 1-4       complete tasks
  defer 2 tomorrow           reschedule (any Todoist due string)
  delete 5                   delete
  p1 3, priority 3 p2        change priority
  delegate 4                 add the comet label
  add call the bank due fri  create a task

With --dry-run commands are resolved and printed but nothing changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepliesPoll(cmd.Context(), cmd.OutOrStdout(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve commands without changing Todoist or sending confirmations")
	return cmd
}

func runRepliesPoll(ctx context.Context, out io.Writer, dryRun bool) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if err := cfg.RequireOwner(); err != nil {
		return err
	}
	tasks, err := a.todoistClient()
	if err != nil {
		return err
	}
	mail, err := a.gmailClient(ctx)
	if err != nil {
		return err
	}

	var confirmations mailer.Mailer
	if m, err := a.mailer(ctx, mail); err != nil {
		a.logger.Warn("reply confirmations disabled", logging.Err(err))
	} else {
		confirmations = m
	}

	mappings, err := store.Open[reviewer.Mapping](cfg.StatePath(taskMappingsFile))
	if err != nil {
		return err
	}
	processed, err := store.Open[replies.ProcessedReply](cfg.StatePath(processedRepliesFile))
	if err != nil {
		return err
	}

	poller := replies.NewPoller(replies.PollDeps{
		Mail:      mail,
		Executor:  replies.NewExecutor(tasks, a.metrics(), a.logger),
		Mappings:  mappings,
		Processed: processed,
		Mailer:    confirmations,
		Logger:    a.logger,
	}, replies.PollOptions{
		OwnerEmail:    cfg.OwnerEmail,
		SubjectPrefix: cfg.Review.SubjectPrefix,
		Lookback:      cfg.Replies.Lookback,
		Retention:     cfg.Replies.Retention.Std(),
	})

	report, err := poller.Poll(ctx, dryRun)
	if report != nil {
		printPollReport(out, report)
	}
	return err
}

func printPollReport(out io.Writer, report *replies.PollReport) {
	for _, r := range report.Replies {
		fmt.Fprintf(out, "%s  %s\n", r.MessageID, r.Subject)
		for _, o := range r.Outcomes {
			fmt.Fprintf(out, "  %s\n", o.Summary())
		}
		for _, line := range r.Unrecognized {
			fmt.Fprintf(out, "  not understood: %s\n", line)
		}
		if r.Err != nil {
			fmt.Fprintf(out, "  error: %v\n", r.Err)
		}
	}
	prefix := ""
	if report.DryRun {
		prefix = "[dry run] "
	}
	fmt.Fprintf(out, "%s%d replies, %d skipped, %d errors\n", prefix, len(report.Replies), report.Skipped, report.Errors)
}
