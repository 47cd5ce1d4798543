package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/teemow/autopilot/internal/analyzer"
	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/store"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/toggl"
)

// Bucket groups review items by when they are due.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketToday    Bucket = "today"
	BucketUpcoming Bucket = "upcoming"
)

// TaskSource lists Todoist tasks.
type TaskSource interface {
	ListTasks(ctx context.Context, filter string) ([]todoist.Task, error)
}

// TimeSource lists Toggl time entries.
type TimeSource interface {
	TimeEntries(ctx context.Context, start, end time.Time) ([]toggl.TimeEntry, error)
}

// TaskAnalyzer analyzes a single task.
type TaskAnalyzer interface {
	Analyze(ctx context.Context, task todoist.Task) analyzer.Analysis
}

// Mapping ties a review item number to the task it stood for. Mappings are
// keyed by the decimal item number.
type Mapping struct {
	TaskID     string `json:"task_id"`
	Content    string `json:"content"`
	ReviewDate string `json:"review_date"`
}

// Item is one numbered task in the review.
type Item struct {
	Number   int
	Task     todoist.Task
	Due      time.Time
	HasDue   bool
	Bucket   Bucket
	Analysis analyzer.Analysis
}

// Review is the assembled daily review.
type Review struct {
	Date     time.Time
	Overdue  []Item
	Today    []Item
	Upcoming []Item
	Time     *toggl.Summary
	Warnings []string
}

// Items returns all items in numbering order.
func (r *Review) Items() []Item {
	items := make([]Item, 0, len(r.Overdue)+len(r.Today)+len(r.Upcoming))
	items = append(items, r.Overdue...)
	items = append(items, r.Today...)
	return append(items, r.Upcoming...)
}

// Mappings returns the number to task mappings for the review.
func (r *Review) Mappings() map[string]Mapping {
	date := r.Date.Format("2006-01-02")
	out := make(map[string]Mapping)
	for _, item := range r.Items() {
		out[fmt.Sprint(item.Number)] = Mapping{
			TaskID:     item.Task.ID,
			Content:    item.Task.Content,
			ReviewDate: date,
		}
	}
	return out
}

// Options configures a Reviewer.
type Options struct {
	Filter        string
	UpcomingDays  int
	Location      *time.Location
	SubjectPrefix string
	Recipient     string
	ReplyTo       string
}

// Deps are the collaborators of a Reviewer. Time is optional.
type Deps struct {
	Tasks    TaskSource
	Time     TimeSource
	Analyzer TaskAnalyzer
	Mailer   mailer.Mailer
	Mappings *store.Store[Mapping]
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger
}

// Reviewer builds and sends the daily review.
type Reviewer struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New creates a Reviewer.
func New(deps Deps, opts Options) *Reviewer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.UpcomingDays <= 0 {
		opts.UpcomingDays = 7
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "Daily review"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{deps: deps, opts: opts, logger: logging.WithOperation(logger, "review")}
}

// Build fetches tasks and assembles the review for now.
func (r *Reviewer) Build(ctx context.Context, now time.Time) (*Review, error) {
	tasks, err := r.deps.Tasks.ListTasks(ctx, r.opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	now = now.In(r.opts.Location)
	review := Bucketize(tasks, now, r.opts.UpcomingDays)

	for _, bucket := range []*[]Item{&review.Overdue, &review.Today, &review.Upcoming} {
		for i := range *bucket {
			item := &(*bucket)[i]
			if r.deps.Analyzer != nil {
				item.Analysis = r.deps.Analyzer.Analyze(ctx, item.Task)
			}
		}
	}

	if r.deps.Time != nil {
		start := startOfDay(now)
		entries, err := r.deps.Time.TimeEntries(ctx, start, start.AddDate(0, 0, 1))
		if err != nil {
			r.logger.Warn("time tracking unavailable", logging.Service(instrumentation.ServiceToggl), logging.Err(err))
			review.Warnings = append(review.Warnings, "Time tracking data is unavailable today.")
		} else {
			summary := toggl.Summarize(entries, now)
			review.Time = &summary
		}
	}

	return review, nil
}

// Bucketize sorts tasks into buckets and numbers them. Tasks due after the
// upcoming window are dropped; tasks without a due date go to Upcoming.
func Bucketize(tasks []todoist.Task, now time.Time, upcomingDays int) *Review {
	loc := now.Location()
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	horizon := today.AddDate(0, 0, upcomingDays+1)

	review := &Review{Date: today}
	for _, task := range tasks {
		due, ok := task.DueDate(loc)
		item := Item{Task: task, Due: due, HasDue: ok}

		switch {
		case !ok:
			item.Bucket = BucketUpcoming
		case task.HasTime() && due.Before(now), !task.HasTime() && due.Before(today):
			item.Bucket = BucketOverdue
		case due.Before(tomorrow):
			item.Bucket = BucketToday
		case due.Before(horizon):
			item.Bucket = BucketUpcoming
		default:
			continue
		}

		switch item.Bucket {
		case BucketOverdue:
			review.Overdue = append(review.Overdue, item)
		case BucketToday:
			review.Today = append(review.Today, item)
		default:
			review.Upcoming = append(review.Upcoming, item)
		}
	}

	n := 0
	for _, bucket := range [][]Item{review.Overdue, review.Today, review.Upcoming} {
		sortItems(bucket)
		for i := range bucket {
			n++
			bucket[i].Number = n
		}
	}
	return review
}

// sortItems orders by priority (most urgent first), then due time (undated
// last), then content.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Task.Priority != b.Task.Priority {
			return a.Task.Priority > b.Task.Priority
		}
		if a.HasDue != b.HasDue {
			return a.HasDue
		}
		if !a.Due.Equal(b.Due) {
			return a.Due.Before(b.Due)
		}
		return strings.ToLower(a.Task.Content) < strings.ToLower(b.Task.Content)
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SendResult describes a sent (or, in a dry run, rendered) review.
type SendResult struct {
	Review    *Review
	Subject   string
	HTML      string
	Text      string
	MessageID string
	DryRun    bool
}

// Send builds, renders and emails the review, then replaces the stored task
// mappings. Mappings are written only once the email is out. A dry run
// renders without sending or saving.
func (r *Reviewer) Send(ctx context.Context, now time.Time, dryRun bool) (*SendResult, error) {
	review, err := r.Build(ctx, now)
	if err != nil {
		r.deps.Metrics.RecordReviewEmail(ctx, instrumentation.StatusError)
		return nil, err
	}

	subject, html, text, err := Render(review, r.opts.SubjectPrefix)
	if err != nil {
		r.deps.Metrics.RecordReviewEmail(ctx, instrumentation.StatusError)
		return nil, err
	}
	result := &SendResult{Review: review, Subject: subject, HTML: html, Text: text, DryRun: dryRun}

	if dryRun {
		r.deps.Metrics.RecordReviewEmail(ctx, instrumentation.StatusDryRun)
		r.logger.Info("dry run, review not sent", slog.Int("items", len(review.Items())))
		return result, nil
	}

	if r.deps.Mailer == nil {
		return nil, fmt.Errorf("no mailer configured")
	}
	id, err := r.deps.Mailer.Send(ctx, mailer.Message{
		To:      []string{r.opts.Recipient},
		Subject: subject,
		HTML:    html,
		Text:    text,
		ReplyTo: r.opts.ReplyTo,
		Kind:    mailer.KindReview,
	})
	if err != nil {
		r.deps.Metrics.RecordReviewEmail(ctx, instrumentation.StatusError)
		return nil, fmt.Errorf("failed to send review: %w", err)
	}
	result.MessageID = id
	r.deps.Metrics.RecordReviewEmail(ctx, instrumentation.StatusSuccess)

	if r.deps.Mappings != nil {
		r.deps.Mappings.Replace(review.Mappings())
		if err := r.deps.Mappings.Save(); err != nil {
			return result, fmt.Errorf("review sent but task mappings were not saved: %w", err)
		}
	}

	r.logger.Info("review sent",
		slog.String("message_id", id),
		slog.Int("overdue", len(review.Overdue)),
		slog.Int("today", len(review.Today)),
		slog.Int("upcoming", len(review.Upcoming)))
	return result, nil
}
