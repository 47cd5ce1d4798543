package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/store"
)

// Gmail system labels.
const (
	labelInbox   = "INBOX"
	labelUnread  = "UNREAD"
	labelStarred = "STARRED"
)

// Mailbox is the subset of the Gmail client the assistant needs.
type Mailbox interface {
	ListMessages(ctx context.Context, q string, max int64) ([]*gmailapi.Message, error)
	GetEmail(ctx context.Context, id string) (gmail.Email, error)
	ModifyMessage(ctx context.Context, id string, add, remove []string) error
	EnsureLabel(ctx context.Context, name string) (string, error)
	CreateDraftReply(ctx context.Context, original gmail.Email, body string) (string, error)
}

// Processed is the persisted record of a handled message.
type Processed struct {
	Tier        Tier      `json:"tier"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Options configures an Assistant.
type Options struct {
	Query       string
	MaxMessages int
	LabelPrefix string
	OwnerEmail  string
	Retention   time.Duration
	// ExcludeFrom lists senders left out of the search, e.g. the address
	// escalations are sent from.
	ExcludeFrom []string
}

// Deps are the collaborators of an Assistant. Notifier may be nil, in which
// case tier 1 messages are only starred and labelled.
type Deps struct {
	Mail       Mailbox
	Classifier *Classifier
	Drafter    *Drafter
	Notifier   mailer.Mailer
	Processed  *store.Store[Processed]
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Assistant runs the triage loop.
type Assistant struct {
	deps Deps
	opts Options
}

// RunOptions controls a single run.
type RunOptions struct {
	DryRun bool
	// Max overrides Options.MaxMessages when positive.
	Max int
}

// Result is what happened to one message.
type Result struct {
	MessageID      string
	Subject        string
	Classification Classification
	Action         string
	DraftID        string
	NotificationID string
	// Downgraded is set when a tier 3 draft failed and the message was
	// flagged instead.
	Downgraded bool
	Err        error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	DryRun   bool
	Results  []Result
	Counts   map[Tier]int
	Skipped  int
	Pruned   int
	Errors   int
}

// Summary is a one-line description of the run.
func (r *Report) Summary() string {
	parts := make([]string, 0, len(Tiers))
	for _, t := range Tiers {
		parts = append(parts, fmt.Sprintf("%s %d", t.Action(), r.Counts[t]))
	}
	s := fmt.Sprintf("processed %d messages (%s), %d skipped, %d errors",
		len(r.Results), strings.Join(parts, ", "), r.Skipped, r.Errors)
	if r.DryRun {
		s = "[dry run] " + s
	}
	return s
}

// New creates an Assistant.
func New(deps Deps, opts Options) *Assistant {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.Query == "" {
		opts.Query = "in:inbox is:unread"
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 25
	}
	return &Assistant{deps: deps, opts: opts}
}

// Query returns the Gmail search for candidate messages.
func (a *Assistant) Query() string {
	q := a.opts.Query
	for _, from := range a.opts.ExcludeFrom {
		if from = strings.TrimSpace(from); from != "" {
			q += " -from:" + from
		}
	}
	return q
}

// Run lists matching messages, classifies the ones not seen before and acts
// on them. A failure on one message is recorded in the report and never stops
// the run; such messages are not marked processed and are retried next time.
func (a *Assistant) Run(ctx context.Context, ro RunOptions) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: a.deps.Now(),
		DryRun:  ro.DryRun,
		Counts:  make(map[Tier]int, len(Tiers)),
	}
	logger := logging.WithRun(logging.WithOperation(a.deps.Logger, "assistant.run"), report.RunID)

	max := a.opts.MaxMessages
	if ro.Max > 0 {
		max = ro.Max
	}

	msgs, err := a.deps.Mail.ListMessages(ctx, a.Query(), int64(max))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	logger.Info("run started", slog.Int("candidates", len(msgs)), slog.Bool("dry_run", ro.DryRun))

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if a.deps.Processed.Has(m.Id) {
			report.Skipped++
			continue
		}

		email, err := a.deps.Mail.GetEmail(ctx, m.Id)
		if err != nil {
			logger.Warn("failed to read message", logging.MessageID(m.Id), logging.Err(err))
			report.Errors++
			report.Results = append(report.Results, Result{MessageID: m.Id, Err: err})
			continue
		}
		if email.Automated != "" {
			logger.Debug("skipping automated message", logging.MessageID(m.Id), slog.String("kind", email.Automated))
			report.Skipped++
			if !ro.DryRun {
				a.deps.Processed.Put(m.Id, Processed{ProcessedAt: a.deps.Now()})
			}
			continue
		}

		res := a.process(ctx, logger, email, ro.DryRun)
		report.Results = append(report.Results, res)
		report.Counts[res.Classification.Tier]++
		if res.Err != nil {
			report.Errors++
			continue
		}
		if !ro.DryRun {
			a.deps.Processed.Put(email.ID, Processed{Tier: res.Classification.Tier, ProcessedAt: a.deps.Now()})
			if res.NotificationID != "" {
				a.deps.Processed.Put(res.NotificationID, Processed{ProcessedAt: a.deps.Now()})
			}
		}
	}

	if !ro.DryRun {
		if a.opts.Retention > 0 {
			cutoff := a.deps.Now().Add(-a.opts.Retention)
			report.Pruned = a.deps.Processed.Prune(func(_ string, p Processed) bool {
				return p.ProcessedAt.Before(cutoff)
			})
		}
		if err := a.deps.Processed.Save(); err != nil {
			return report, fmt.Errorf("failed to save processed messages: %w", err)
		}
	}

	report.Finished = a.deps.Now()
	logger.Info("run finished",
		slog.Int("processed", len(report.Results)),
		slog.Int("skipped", report.Skipped),
		slog.Int("pruned", report.Pruned),
		slog.Int("errors", report.Errors))
	return report, nil
}

func (a *Assistant) process(ctx context.Context, logger *slog.Logger, email gmail.Email, dryRun bool) Result {
	c := a.deps.Classifier.Classify(ctx, email)
	res := Result{MessageID: email.ID, Subject: email.Subject, Classification: c, Action: c.Tier.Action()}

	logger = logger.With(logging.MessageID(email.ID), logging.Tier(int(c.Tier)))
	logger.Info("message classified",
		logging.UserHash(email.FromAddress),
		slog.String("source", c.Source),
		slog.Float64("confidence", c.Confidence),
		slog.String("reason", c.Reason))

	if dryRun {
		a.deps.Metrics.RecordAssistantMessage(ctx, int(c.Tier), res.Action, instrumentation.StatusDryRun)
		return res
	}

	switch c.Tier {
	case TierEscalate:
		res.Err = a.escalate(ctx, email, c, &res)
	case TierHandle:
		res.Err = a.label(ctx, email.ID, TierHandle, []string{labelInbox, labelUnread})
	case TierDraft:
		res.Err = a.draft(ctx, logger, email, &res)
	default:
		res.Err = a.label(ctx, email.ID, TierFlag, nil)
	}

	status := instrumentation.StatusSuccess
	if res.Err != nil {
		status = instrumentation.StatusError
		logger.Warn("action failed", slog.String("action", res.Action), logging.Err(res.Err))
	}
	a.deps.Metrics.RecordAssistantMessage(ctx, int(c.Tier), res.Action, status)
	return res
}

func (a *Assistant) label(ctx context.Context, id string, tier Tier, remove []string, extra ...string) error {
	labelID, err := a.deps.Mail.EnsureLabel(ctx, tier.Label(a.opts.LabelPrefix))
	if err != nil {
		return err
	}
	return a.deps.Mail.ModifyMessage(ctx, id, append([]string{labelID}, extra...), remove)
}

func (a *Assistant) escalate(ctx context.Context, email gmail.Email, c Classification, res *Result) error {
	if err := a.label(ctx, email.ID, TierEscalate, nil, labelStarred); err != nil {
		return err
	}
	if a.deps.Notifier == nil || a.opts.OwnerEmail == "" {
		return nil
	}
	id, err := a.deps.Notifier.Send(ctx, Notification(email, c, a.opts.OwnerEmail))
	if err != nil {
		return fmt.Errorf("failed to send escalation: %w", err)
	}
	res.NotificationID = id
	return nil
}

func (a *Assistant) draft(ctx context.Context, logger *slog.Logger, email gmail.Email, res *Result) error {
	body, err := a.deps.Drafter.Draft(ctx, email)
	if err == nil {
		res.DraftID, err = a.deps.Mail.CreateDraftReply(ctx, email, body)
	}
	if err != nil {
		logger.Warn("draft failed, flagging instead", logging.Err(err))
		res.Downgraded = true
		res.Action = TierFlag.Action()
		return a.label(ctx, email.ID, TierFlag, nil)
	}
	return a.label(ctx, email.ID, TierDraft, nil)
}

const escalationPrefix = "[Escalation] "

// Notification builds the escalation email sent to the owner.
func Notification(email gmail.Email, c Classification, to string) mailer.Message {
	from := email.From
	if from == "" {
		from = email.FromAddress
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	if email.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", email.Date)
	}
	fmt.Fprintf(&b, "Why: %s (%s, confidence %.2f)\n\n", c.Reason, c.Source, c.Confidence)
	if snippet := strings.TrimSpace(email.Snippet); snippet != "" {
		b.WriteString(snippet + "\n\n")
	}
	thread := email.ThreadID
	if thread == "" {
		thread = email.ID
	}
	fmt.Fprintf(&b, "https://mail.google.com/mail/u/0/#inbox/%s\n", thread)

	subject := email.Subject
	if !strings.HasPrefix(subject, escalationPrefix) {
		subject = escalationPrefix + subject
	}
	return mailer.Message{
		To:      []string{to},
		Subject: subject,
		Text:    b.String(),
		Kind:    mailer.KindEscalation,
	}
}
