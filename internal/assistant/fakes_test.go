package assistant

import (
	"context"
	"fmt"
	"sync"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/mailer"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type modifyCall struct {
	add    []string
	remove []string
}

type fakeMailbox struct {
	query     string
	ids       []string
	emails    map[string]gmail.Email
	listErr   error
	modifyErr map[string]error

	modified map[string][]modifyCall
	drafts   map[string]string
}

func newFakeMailbox(emails ...gmail.Email) *fakeMailbox {
	f := &fakeMailbox{
		emails:    make(map[string]gmail.Email),
		modifyErr: make(map[string]error),
		modified:  make(map[string][]modifyCall),
		drafts:    make(map[string]string),
	}
	for _, e := range emails {
		f.ids = append(f.ids, e.ID)
		f.emails[e.ID] = e
	}
	return f
}

func (f *fakeMailbox) ListMessages(_ context.Context, q string, max int64) ([]*gmailapi.Message, error) {
	f.query = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*gmailapi.Message
	for _, id := range f.ids {
		if int64(len(out)) >= max {
			break
		}
		out = append(out, &gmailapi.Message{Id: id})
	}
	return out, nil
}

func (f *fakeMailbox) GetEmail(_ context.Context, id string) (gmail.Email, error) {
	e, ok := f.emails[id]
	if !ok {
		return gmail.Email{}, fmt.Errorf("message %s not found", id)
	}
	return e, nil
}

func (f *fakeMailbox) ModifyMessage(_ context.Context, id string, add, remove []string) error {
	if err := f.modifyErr[id]; err != nil {
		return err
	}
	f.modified[id] = append(f.modified[id], modifyCall{add: add, remove: remove})
	return nil
}

func (f *fakeMailbox) EnsureLabel(_ context.Context, name string) (string, error) {
	return "Label_" + name, nil
}

func (f *fakeMailbox) CreateDraftReply(_ context.Context, original gmail.Email, body string) (string, error) {
	f.drafts[original.ID] = body
	return "draft-" + original.ID, nil
}

type fakeNotifier struct {
	sent []mailer.Message
}

func (f *fakeNotifier) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("note-%d", len(f.sent)), nil
}
