package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/autopilot/internal/assistant"
	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/store"
)

func newAssistantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Email assistant commands",
	}
	cmd.AddCommand(newAssistantRunCmd())
	return cmd
}

func newAssistantRunCmd() *cobra.Command {
	var (
		dryRun bool
		max    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Triage unread Gmail messages",
		Long: `Classify unread Gmail messages into four tiers and act on each:

  1 escalate  star, label and send a notification email
  2 handle    label and archive
  3 draft     write a reply draft with the LLM and label
  4 flag      label for a later look

Messages already handled by a previous run are skipped. With --dry-run the
classification is printed and nothing in Gmail or the state file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssistant(cmd.Context(), cmd.OutOrStdout(), dryRun, max)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify only; do not label, draft, notify or record messages")
	cmd.Flags().IntVar(&max, "max", 0, "Maximum messages to look at (default: assistant.max-messages)")
	return cmd
}

func runAssistant(ctx context.Context, out io.Writer, dryRun bool, max int) error {
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
	mail, err := a.gmailClient(ctx)
	if err != nil {
		return err
	}

	// Escalation mail is optional: without it tier 1 messages are only
	// starred and labelled.
	var notifier mailer.Mailer
	if m, err := a.mailer(ctx, mail); err != nil {
		a.logger.Warn("escalation notifications disabled", logging.Err(err))
	} else {
		notifier = m
	}

	processed, err := store.Open[assistant.Processed](cfg.StatePath(processedMessagesFile))
	if err != nil {
		return err
	}

	completer := a.completer()
	runner := assistant.New(assistant.Deps{
		Mail: mail,
		Classifier: assistant.NewClassifier(completer, assistant.ClassifierOptions{
			OwnerEmail:     cfg.OwnerEmail,
			OwnerName:      cfg.OwnerName,
			VIPs:           cfg.Assistant.VIPs,
			UrgentKeywords: cfg.Assistant.UrgentKeywords,
			Threshold:      cfg.Assistant.LLMThreshold,
			MaxBodyChars:   cfg.Assistant.MaxBodyChars,
		}, a.logger),
		Drafter: assistant.NewDrafter(completer, assistant.DrafterOptions{
			OwnerName:    cfg.OwnerName,
			Style:        cfg.Assistant.DraftStyle,
			MaxBodyChars: cfg.Assistant.MaxBodyChars,
		}),
		Notifier:  notifier,
		Processed: processed,
		Metrics:   a.metrics(),
		Logger:    a.logger,
	}, assistant.Options{
		Query:       cfg.Assistant.Query,
		MaxMessages: cfg.Assistant.MaxMessages,
		LabelPrefix: cfg.Assistant.LabelPrefix,
		OwnerEmail:  cfg.OwnerEmail,
		Retention:   cfg.Assistant.Retention.Std(),
		ExcludeFrom: escalationSenders(cfg),
	})

	report, err := runner.Run(ctx, assistant.RunOptions{DryRun: dryRun, Max: max})
	if report != nil {
		printAssistantReport(out, report)
	}
	return err
}

// escalationSenders returns the From address of escalation mail when it
// differs from the owner; owner mail is needed in the inbox search.
func escalationSenders(cfg *config.Config) []string {
	if cfg.Mail.Provider != config.MailProviderSES || cfg.Mail.From == "" {
		return nil
	}
	_, from := gmail.ParseAddress(cfg.Mail.From)
	if from == "" || strings.EqualFold(from, cfg.OwnerEmail) {
		return nil
	}
	return []string{from}
}

func printAssistantReport(out io.Writer, report *assistant.Report) {
	for _, r := range report.Results {
		status := r.Action
		switch {
		case r.Err != nil:
			status = "error: " + r.Err.Error()
		case r.Downgraded:
			status = "flag (draft failed)"
		}
		fmt.Fprintf(out, "%-16s T%d  %-20s %s\n", r.MessageID, int(r.Classification.Tier), status, r.Subject)
	}
	fmt.Fprintln(out, report.Summary())
}
