package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/autopilot/internal/analyzer"
	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/reviewer"
	"github.com/teemow/autopilot/internal/store"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Todoist daily review commands",
	}
	cmd.AddCommand(newReviewSendCmd())
	return cmd
}

func newReviewSendCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Email the Todoist daily review",
		Long: `Build the daily review of overdue, today's and upcoming Todoist tasks,
number every task, and email it. The numbers are saved so that replies such
as "done 3" or "defer 1 2 tomorrow" can be executed by "replies poll".

With --dry-run the review is printed as text and neither sent nor saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewSend(cmd.Context(), cmd.OutOrStdout(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the review instead of sending it")
	return cmd
}

func runReviewSend(ctx context.Context, out io.Writer, dryRun bool) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	tasks, err := a.todoistClient()
	if err != nil {
		return err
	}

	deps := reviewer.Deps{
		Tasks:    tasks,
		Analyzer: analyzer.New(a.completer(), a.logger),
		Metrics:  a.metrics(),
		Logger:   a.logger,
	}

	timeSource, err := a.togglClient()
	if err != nil {
		return err
	}
	if timeSource != nil {
		deps.Time = timeSource
	}

	if !dryRun {
		if cfg.Review.Recipient == "" {
			if err := cfg.RequireOwner(); err != nil {
				return err
			}
		}
		m, err := a.outboundMailer(ctx)
		if err != nil {
			return err
		}
		deps.Mailer = m

		deps.Mappings, err = store.Open[reviewer.Mapping](cfg.StatePath(taskMappingsFile))
		if err != nil {
			return err
		}
	}

	r := reviewer.New(deps, reviewer.Options{
		Filter:        cfg.Review.Filter,
		UpcomingDays:  cfg.Review.UpcomingDays,
		Location:      a.location(),
		SubjectPrefix: cfg.Review.SubjectPrefix,
		Recipient:     cfg.ReviewRecipient(),
		ReplyTo:       cfg.Mail.ReplyTo,
	})

	result, err := r.Send(ctx, time.Now(), dryRun)
	if result == nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(out, "Subject: %s\n\n%s", result.Subject, result.Text)
		return nil
	}
	fmt.Fprintf(out, "review sent to %s (%d tasks, message %s)\n",
		cfg.ReviewRecipient(), len(result.Review.Items()), result.MessageID)
	return err
}

// outboundMailer builds the mailer for report emails, creating a Gmail client
// only when mail goes out through Gmail.
func (a *app) outboundMailer(ctx context.Context) (mailer.Mailer, error) {
	var gmailClient *gmail.Client
	if a.cfg.Mail.Provider == config.MailProviderGmail {
		var err error
		if gmailClient, err = a.gmailClient(ctx); err != nil {
			return nil, err
		}
	}
	m, err := a.mailer(ctx, gmailClient)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("mailer ready", logging.Service(a.cfg.Mail.Provider))
	return m, nil
}
