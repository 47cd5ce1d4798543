package replies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/teemow/autopilot/internal/analyzer"
	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/reviewer"
	"github.com/teemow/autopilot/internal/todoist"
)

// ErrUnknownNumber is returned for item numbers that were not in the last
// review.
var ErrUnknownNumber = errors.New("no task with that number in the last review")

// TaskClient is the subset of the Todoist client the executor needs.
type TaskClient interface {
	GetTask(ctx context.Context, id string) (*todoist.Task, error)
	CloseTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	UpdateTask(ctx context.Context, id string, update todoist.TaskUpdate) (*todoist.Task, error)
	CreateTask(ctx context.Context, task todoist.NewTask) (*todoist.Task, error)
}

// Mappings resolves review item numbers to tasks.
type Mappings map[int]reviewer.Mapping

// MappingsFrom converts the persisted string-keyed mappings. Keys that are
// not numbers are ignored.
func MappingsFrom(stored map[string]reviewer.Mapping) Mappings {
	out := make(Mappings, len(stored))
	for k, v := range stored {
		if n, err := strconv.Atoi(k); err == nil {
			out[n] = v
		}
	}
	return out
}

// Outcome is the result of applying one command to one task.
type Outcome struct {
	Action  Action
	Number  int
	TaskID  string
	Content string
	Detail  string
	DryRun  bool
	Err     error
}

// OK reports whether the command succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Summary is a one-line human description of the outcome.
func (o Outcome) Summary() string {
	subject := o.Content
	if o.Number > 0 {
		subject = fmt.Sprintf("#%d %s", o.Number, o.Content)
	}
	if o.Err != nil {
		return fmt.Sprintf("FAILED %s %s: %v", o.Action, subject, o.Err)
	}
	verb := map[Action]string{
		ActionComplete:   "Completed",
		ActionReschedule: "Deferred",
		ActionDelete:     "Deleted",
		ActionPriority:   "Reprioritized",
		ActionDelegate:   "Delegated",
		ActionAdd:        "Added",
	}[o.Action]
	s := verb + " " + subject
	if o.Detail != "" {
		s += " (" + o.Detail + ")"
	}
	if o.DryRun {
		s = "[dry run] " + s
	}
	return s
}

// Executor applies parsed commands to Todoist.
type Executor struct {
	tasks   TaskClient
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	DryRun  bool
}

// NewExecutor creates an Executor.
func NewExecutor(tasks TaskClient, metrics *instrumentation.Metrics, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{tasks: tasks, metrics: metrics, logger: logging.WithOperation(logger, "replies.execute")}
}

// Execute runs every command against every number it names. A failure on one
// task never stops the others.
func (e *Executor) Execute(ctx context.Context, cmds []Command, mappings Mappings) []Outcome {
	var outcomes []Outcome
	for _, cmd := range cmds {
		if cmd.Action == ActionAdd {
			outcomes = append(outcomes, e.record(ctx, e.add(ctx, cmd)))
			continue
		}
		for _, n := range cmd.Numbers {
			o := Outcome{Action: cmd.Action, Number: n, DryRun: e.DryRun}
			m, ok := mappings[n]
			if !ok {
				o.Err = ErrUnknownNumber
				outcomes = append(outcomes, e.record(ctx, o))
				continue
			}
			o.TaskID = m.TaskID
			o.Content = m.Content
			if !e.DryRun {
				o.Detail, o.Err = e.apply(ctx, cmd, m.TaskID)
			} else {
				o.Detail = describe(cmd)
			}
			outcomes = append(outcomes, e.record(ctx, o))
		}
	}
	return outcomes
}

func (e *Executor) apply(ctx context.Context, cmd Command, taskID string) (string, error) {
	switch cmd.Action {
	case ActionComplete:
		return "", e.tasks.CloseTask(ctx, taskID)

	case ActionDelete:
		return "", e.tasks.DeleteTask(ctx, taskID)

	case ActionReschedule:
		_, err := e.tasks.UpdateTask(ctx, taskID, todoist.TaskUpdate{DueString: cmd.When})
		return describe(cmd), err

	case ActionPriority:
		p := todoist.APIPriority(cmd.Priority)
		_, err := e.tasks.UpdateTask(ctx, taskID, todoist.TaskUpdate{Priority: &p})
		return describe(cmd), err

	case ActionDelegate:
		task, err := e.tasks.GetTask(ctx, taskID)
		if err != nil {
			return "", err
		}
		if task.HasLabel(analyzer.DelegateLabel) {
			return "already delegated", nil
		}
		labels := append(append([]string{}, task.Labels...), analyzer.DelegateLabel)
		_, err = e.tasks.UpdateTask(ctx, taskID, todoist.TaskUpdate{Labels: &labels})
		return describe(cmd), err
	}
	return "", fmt.Errorf("unsupported action %q", cmd.Action)
}

func (e *Executor) add(ctx context.Context, cmd Command) Outcome {
	o := Outcome{Action: ActionAdd, Content: cmd.Content, Detail: describe(cmd), DryRun: e.DryRun}
	if e.DryRun {
		return o
	}
	task, err := e.tasks.CreateTask(ctx, todoist.NewTask{Content: cmd.Content, DueString: cmd.When})
	if err != nil {
		o.Err = err
		return o
	}
	o.TaskID = task.ID
	return o
}

func (e *Executor) record(ctx context.Context, o Outcome) Outcome {
	status := instrumentation.StatusSuccess
	switch {
	case o.Err != nil:
		status = instrumentation.StatusError
		e.logger.Warn("reply command failed",
			slog.String("action", string(o.Action)),
			slog.Int("number", o.Number),
			logging.TaskID(o.TaskID),
			logging.Err(o.Err))
	case o.DryRun:
		status = instrumentation.StatusDryRun
	default:
		e.logger.Info("reply command applied",
			slog.String("action", string(o.Action)),
			logging.TaskID(o.TaskID))
	}
	e.metrics.RecordReplyCommand(ctx, string(o.Action), status)
	return o
}

func describe(cmd Command) string {
	switch cmd.Action {
	case ActionReschedule:
		return "to " + cmd.When
	case ActionPriority:
		return fmt.Sprintf("P%d", cmd.Priority)
	case ActionDelegate:
		return "labelled " + analyzer.DelegateLabel
	case ActionAdd:
		if cmd.When != "" {
			return "due " + cmd.When
		}
	}
	return ""
}
