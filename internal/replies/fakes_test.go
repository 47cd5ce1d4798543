package replies

import (
	"context"
	"fmt"
	"sync"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/todoist"
)

type fakeTodoist struct {
	mu      sync.Mutex
	tasks   map[string]*todoist.Task
	closed  []string
	deleted []string
	updates map[string][]todoist.TaskUpdate
	created []todoist.NewTask
	failOn  map[string]error
}

func newFakeTodoist(tasks ...todoist.Task) *fakeTodoist {
	f := &fakeTodoist{
		tasks:   make(map[string]*todoist.Task),
		updates: make(map[string][]todoist.TaskUpdate),
		failOn:  make(map[string]error),
	}
	for i := range tasks {
		t := tasks[i]
		f.tasks[t.ID] = &t
	}
	return f
}

func (f *fakeTodoist) GetTask(_ context.Context, id string) (*todoist.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, &todoist.APIError{StatusCode: 404, Body: "Task not found"}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTodoist) CloseTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return err
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeTodoist) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTodoist) UpdateTask(_ context.Context, id string, u todoist.TaskUpdate) (*todoist.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return nil, err
	}
	f.updates[id] = append(f.updates[id], u)
	return &todoist.Task{ID: id}, nil
}

func (f *fakeTodoist) CreateTask(_ context.Context, t todoist.NewTask) (*todoist.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, t)
	return &todoist.Task{ID: fmt.Sprintf("new-%d", len(f.created)), Content: t.Content}, nil
}

type fakeMail struct {
	query   string
	ids     []string
	emails  map[string]gmail.Email
	listErr error
}

func (f *fakeMail) ListMessages(_ context.Context, q string, _ int64) ([]*gmailapi.Message, error) {
	f.query = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*gmailapi.Message
	for _, id := range f.ids {
		out = append(out, &gmailapi.Message{Id: id})
	}
	return out, nil
}

func (f *fakeMail) GetEmail(_ context.Context, id string) (gmail.Email, error) {
	e, ok := f.emails[id]
	if !ok {
		return gmail.Email{}, fmt.Errorf("message %s not found", id)
	}
	return e, nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("conf-%d", len(f.sent)), nil
}
