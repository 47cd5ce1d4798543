package replies

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/reviewer"
	"github.com/teemow/autopilot/internal/store"
)

// MailSource finds and reads reply emails.
type MailSource interface {
	ListMessages(ctx context.Context, q string, max int64) ([]*gmailapi.Message, error)
	GetEmail(ctx context.Context, id string) (gmail.Email, error)
}

// ProcessedReply is the persisted record of a handled reply.
type ProcessedReply struct {
	ProcessedAt time.Time `json:"processed_at"`
	Commands    int       `json:"commands"`
	Failed      int       `json:"failed"`
}

// PollOptions configures a Poller.
type PollOptions struct {
	OwnerEmail    string
	SubjectPrefix string
	// Lookback is a Gmail newer_than value such as "2d".
	Lookback   string
	Retention  time.Duration
	MaxReplies int64
}

// PollDeps are the collaborators of a Poller. Mailer may be nil, in which
// case no confirmation is sent.
type PollDeps struct {
	Mail      MailSource
	Executor  *Executor
	Mappings  *store.Store[reviewer.Mapping]
	Processed *store.Store[ProcessedReply]
	Mailer    mailer.Mailer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Poller processes replies to the daily review.
type Poller struct {
	deps   PollDeps
	opts   PollOptions
	logger *slog.Logger
}

// ReplyResult is what happened for one reply email.
type ReplyResult struct {
	MessageID      string
	Subject        string
	Outcomes       []Outcome
	Unrecognized   []string
	ConfirmationID string
	Err            error
}

// PollReport summarizes one poll.
type PollReport struct {
	Replies []ReplyResult
	Skipped int
	Pruned  int
	Errors  int
	DryRun  bool
}

// NewPoller creates a Poller.
func NewPoller(deps PollDeps, opts PollOptions) *Poller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.Lookback == "" {
		opts.Lookback = "2d"
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "Daily review"
	}
	if opts.MaxReplies <= 0 {
		opts.MaxReplies = 20
	}
	return &Poller{deps: deps, opts: opts, logger: logging.WithOperation(deps.Logger, "replies.poll")}
}

// Query returns the Gmail search used to find replies.
func (p *Poller) Query() string {
	q := fmt.Sprintf(`subject:"%s" newer_than:%s`, p.opts.SubjectPrefix, p.opts.Lookback)
	if p.opts.OwnerEmail != "" {
		q = "from:" + p.opts.OwnerEmail + " " + q
	}
	return q
}

var replyPrefix = regexp.MustCompile(`(?i)^\s*(re|aw|sv)\s*:`)

// Poll finds unprocessed replies, executes their commands and sends a
// confirmation for each. In a dry run nothing is changed in Todoist, no
// confirmation is sent, and no state is written.
func (p *Poller) Poll(ctx context.Context, dryRun bool) (*PollReport, error) {
	report := &PollReport{DryRun: dryRun}
	p.deps.Executor.DryRun = dryRun

	msgs, err := p.deps.Mail.ListMessages(ctx, p.Query(), p.opts.MaxReplies)
	if err != nil {
		return nil, fmt.Errorf("failed to search replies: %w", err)
	}

	mappings := MappingsFrom(p.deps.Mappings.Snapshot())

	for _, m := range msgs {
		if p.deps.Processed.Has(m.Id) {
			report.Skipped++
			continue
		}

		email, err := p.deps.Mail.GetEmail(ctx, m.Id)
		if err != nil {
			p.logger.Warn("failed to read reply", logging.MessageID(m.Id), logging.Err(err))
			report.Errors++
			report.Replies = append(report.Replies, ReplyResult{MessageID: m.Id, Err: err})
			continue
		}
		if email.Automated != "" {
			// Our own confirmation carries the review subject too.
			p.logger.Debug("skipping automated message", logging.MessageID(m.Id), slog.String("kind", email.Automated))
			report.Skipped++
			if !dryRun {
				p.deps.Processed.Put(m.Id, ProcessedReply{ProcessedAt: p.deps.Now()})
			}
			continue
		}
		if !replyPrefix.MatchString(email.Subject) {
			report.Skipped++
			continue
		}

		result := p.handle(ctx, email, mappings, dryRun)
		if result.Err != nil {
			report.Errors++
		}
		for _, o := range result.Outcomes {
			if !o.OK() {
				report.Errors++
			}
		}
		report.Replies = append(report.Replies, result)
	}

	if dryRun {
		return report, nil
	}

	if p.opts.Retention > 0 {
		cutoff := p.deps.Now().Add(-p.opts.Retention)
		report.Pruned = p.deps.Processed.Prune(func(_ string, r ProcessedReply) bool {
			return r.ProcessedAt.Before(cutoff)
		})
	}
	if err := p.deps.Processed.Save(); err != nil {
		return report, fmt.Errorf("failed to save processed replies: %w", err)
	}
	return report, nil
}

func (p *Poller) handle(ctx context.Context, email gmail.Email, mappings Mappings, dryRun bool) ReplyResult {
	result := ReplyResult{MessageID: email.ID, Subject: email.Subject}

	parsed := Parse(email.Body)
	result.Unrecognized = parsed.Unrecognized
	result.Outcomes = p.deps.Executor.Execute(ctx, parsed.Commands, mappings)

	p.logger.Info("reply processed",
		logging.MessageID(email.ID),
		slog.Int("commands", len(parsed.Commands)),
		slog.Int("unrecognized", len(parsed.Unrecognized)),
		slog.Bool("dry_run", dryRun))

	if dryRun {
		return result
	}

	if p.deps.Mailer != nil && (len(result.Outcomes) > 0 || len(result.Unrecognized) > 0) {
		id, err := p.deps.Mailer.Send(ctx, Confirmation(email, result, p.opts.OwnerEmail))
		if err != nil {
			// The commands already ran; do not retry them on the next poll.
			p.logger.Warn("failed to send confirmation", logging.MessageID(email.ID), logging.Err(err))
			result.Err = fmt.Errorf("confirmation not sent: %w", err)
		}
		result.ConfirmationID = id
		if id != "" {
			p.deps.Processed.Put(id, ProcessedReply{ProcessedAt: p.deps.Now()})
		}
	}

	failed := 0
	for _, o := range result.Outcomes {
		if !o.OK() {
			failed++
		}
	}
	p.deps.Processed.Put(email.ID, ProcessedReply{
		ProcessedAt: p.deps.Now(),
		Commands:    len(result.Outcomes),
		Failed:      failed,
	})
	return result
}

// Confirmation builds the email listing what a reply did.
func Confirmation(email gmail.Email, result ReplyResult, to string) mailer.Message {
	if to == "" {
		to = email.FromAddress
	}

	var b strings.Builder
	ok := 0
	for _, o := range result.Outcomes {
		if o.OK() {
			ok++
		}
	}
	fmt.Fprintf(&b, "Applied %d of %d commands.\n\n", ok, len(result.Outcomes))
	for _, o := range result.Outcomes {
		b.WriteString("- " + o.Summary() + "\n")
	}
	if len(result.Unrecognized) > 0 {
		b.WriteString("\nNot understood:\n")
		for _, line := range result.Unrecognized {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\nCommands: done N, defer N [to] WHEN, delete N, p1-p4 N, priority N LEVEL, delegate N, add TEXT [due WHEN]\n")
	}

	subject := strings.TrimSpace(replyPrefix.ReplaceAllString(email.Subject, ""))
	return mailer.Message{
		To:      []string{to},
		Subject: "Re: " + subject,
		Text:    b.String(),
		Kind:    mailer.KindConfirmation,
	}
}
