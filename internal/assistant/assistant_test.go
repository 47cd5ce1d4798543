package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/store"
)

var runNow = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

var (
	vipMail      = gmail.Email{ID: "m-vip", ThreadID: "t-vip", From: "Boss <boss@example.com>", FromAddress: "boss@example.com", Subject: "Board deck", Snippet: "Need the numbers"}
	bulkMail     = gmail.Email{ID: "m-bulk", FromAddress: "news@startup.io", Subject: "March update", Bulk: true}
	questionMail = gmail.Email{ID: "m-q", FromAddress: "alex@example.net", To: "me@example.com", Subject: "Lunch next week", Body: "Can you make Tuesday?"}
	otherMail    = gmail.Email{ID: "m-other", FromAddress: "friend@example.com", Subject: "Photos", Body: "Here they are."}
	seenMail     = gmail.Email{ID: "m-seen", FromAddress: "friend@example.com", Subject: "Old"}
)

type runFixture struct {
	assistant *Assistant
	mail      *fakeMailbox
	drafts    *fakeCompleter
	notifier  *fakeNotifier
	processed *store.Store[Processed]
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()

	processed, err := store.Open[Processed](filepath.Join(t.TempDir(), "processed-messages.json"))
	require.NoError(t, err)
	processed.Put("m-seen", Processed{Tier: TierFlag, ProcessedAt: runNow.Add(-time.Hour)})
	processed.Put("ancient", Processed{Tier: TierHandle, ProcessedAt: runNow.Add(-40 * 24 * time.Hour)})

	f := &runFixture{
		mail:      newFakeMailbox(vipMail, bulkMail, questionMail, otherMail, seenMail),
		drafts:    &fakeCompleter{reply: "Tuesday works.\n\nSam"},
		notifier:  &fakeNotifier{},
		processed: processed,
	}
	f.assistant = New(Deps{
		Mail:       f.mail,
		Classifier: NewClassifier(nil, testClassifierOptions(), nil),
		Drafter:    NewDrafter(f.drafts, DrafterOptions{OwnerName: "Sam"}),
		Notifier:   f.notifier,
		Processed:  processed,
		Now:        func() time.Time { return runNow },
	}, Options{
		LabelPrefix: "assistant",
		OwnerEmail:  "me@example.com",
		Retention:   30 * 24 * time.Hour,
	})
	return f
}

func TestAssistant_Run(t *testing.T) {
	f := newRunFixture(t)

	report, err := f.assistant.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Len(t, report.Results, 4)
	assert.Equal(t, map[Tier]int{TierEscalate: 1, TierHandle: 1, TierDraft: 1, TierFlag: 1}, report.Counts)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Pruned)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, "processed 4 messages (escalate 1, handle 1, draft 1, flag 1), 1 skipped, 0 errors", report.Summary())

	assert.Equal(t, []modifyCall{{add: []string{"Label_assistant/escalate", "STARRED"}}}, f.mail.modified["m-vip"])
	assert.Equal(t, []modifyCall{{add: []string{"Label_assistant/handled"}, remove: []string{"INBOX", "UNREAD"}}}, f.mail.modified["m-bulk"])
	assert.Equal(t, []modifyCall{{add: []string{"Label_assistant/drafted"}}}, f.mail.modified["m-q"])
	assert.Equal(t, []modifyCall{{add: []string{"Label_assistant/flagged"}}}, f.mail.modified["m-other"])
	assert.Empty(t, f.mail.modified["m-seen"])

	assert.Equal(t, map[string]string{"m-q": "Tuesday works.\n\nSam"}, f.mail.drafts)
	assert.Equal(t, "draft-m-q", report.Results[2].DraftID)

	require.Len(t, f.notifier.sent, 1)
	note := f.notifier.sent[0]
	assert.Equal(t, []string{"me@example.com"}, note.To)
	assert.Equal(t, "[Escalation] Board deck", note.Subject)
	assert.Contains(t, note.Text, "From: Boss <boss@example.com>")
	assert.Contains(t, note.Text, "https://mail.google.com/mail/u/0/#inbox/t-vip")
	assert.Equal(t, "note-1", report.Results[0].NotificationID)

	for _, id := range []string{"m-vip", "m-bulk", "m-q", "m-other", "m-seen"} {
		assert.True(t, f.processed.Has(id), id)
	}
	assert.False(t, f.processed.Has("ancient"))

	reopened, err := store.Open[Processed](f.processed.Path())
	require.NoError(t, err)
	got, err := reopened.Get("m-bulk")
	require.NoError(t, err)
	assert.Equal(t, TierHandle, got.Tier)
	assert.True(t, got.ProcessedAt.Equal(runNow))
}

func TestAssistant_DraftFailureFlags(t *testing.T) {
	f := newRunFixture(t)
	f.drafts.err = errors.New("llm timed out")

	report, err := f.assistant.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Errors)

	res := report.Results[2]
	assert.Equal(t, "m-q", res.MessageID)
	assert.True(t, res.Downgraded)
	assert.Equal(t, "flag", res.Action)
	assert.Equal(t, TierDraft, res.Classification.Tier)
	assert.Equal(t, []modifyCall{{add: []string{"Label_assistant/flagged"}}}, f.mail.modified["m-q"])
	assert.Empty(t, f.mail.drafts)
}

func TestAssistant_ActionFailureIsRetried(t *testing.T) {
	f := newRunFixture(t)
	f.mail.modifyErr["m-bulk"] = errors.New("gmail 500")

	report, err := f.assistant.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Error(t, report.Results[1].Err)
	assert.False(t, f.processed.Has("m-bulk"))
	assert.True(t, f.processed.Has("m-other"))
}

func TestAssistant_DryRun(t *testing.T) {
	f := newRunFixture(t)

	report, err := f.assistant.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Results, 4)
	assert.Equal(t, 1, report.Counts[TierDraft])
	assert.Equal(t, 0, report.Pruned)

	assert.Empty(t, f.mail.modified)
	assert.Empty(t, f.mail.drafts)
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.drafts.prompts)
	assert.Equal(t, 2, f.processed.Len())
	assert.True(t, f.processed.Has("ancient"))
}

func TestAssistant_MaxOverride(t *testing.T) {
	f := newRunFixture(t)

	report, err := f.assistant.Run(context.Background(), RunOptions{DryRun: true, Max: 2})
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
}

func TestAssistant_ListFailure(t *testing.T) {
	f := newRunFixture(t)
	f.mail.listErr = errors.New("invalid_grant")

	_, err := f.assistant.Run(context.Background(), RunOptions{})
	assert.ErrorContains(t, err, "failed to list messages")
}

func TestAssistant_UnreadableMessage(t *testing.T) {
	f := newRunFixture(t)
	f.mail.ids = append([]string{"m-missing"}, f.mail.ids...)

	report, err := f.assistant.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Len(t, report.Results, 5)
	assert.False(t, f.processed.Has("m-missing"))
}

func TestAssistant_IgnoresOwnEscalations(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		header bool
	}{
		{name: "delivered under the sent id", id: "note-1"},
		{name: "delivered with a new id", id: "m-escalation", header: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(t)

			_, err := f.assistant.Run(context.Background(), RunOptions{})
			require.NoError(t, err)
			require.Len(t, f.notifier.sent, 1)
			note := f.notifier.sent[0]
			assert.Equal(t, mailer.KindEscalation, note.Kind)

			// The owner's escalation lands in the owner's inbox, quoting a
			// VIP sender in its body.
			email := gmail.Email{ID: tt.id, FromAddress: "me@example.com", From: "boss@example.com", Subject: note.Subject, Body: note.Text}
			if tt.header {
				email.Automated = note.Kind
			}
			f.mail.ids = append(f.mail.ids, tt.id)
			f.mail.emails[tt.id] = email

			report, err := f.assistant.Run(context.Background(), RunOptions{})
			require.NoError(t, err)
			assert.Empty(t, report.Results)
			assert.Equal(t, 6, report.Skipped)
			assert.Len(t, f.notifier.sent, 1)
			assert.Empty(t, f.mail.modified[tt.id])
			assert.True(t, f.processed.Has(tt.id))
		})
	}
}

func TestAssistant_AutomatedMailInDryRun(t *testing.T) {
	f := newRunFixture(t)
	review := gmail.Email{ID: "m-review", FromAddress: "me@example.com", Subject: "Daily review", Automated: mailer.KindReview}
	f.mail.ids = append(f.mail.ids, review.ID)
	f.mail.emails[review.ID] = review

	report, err := f.assistant.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, report.Results, 4)
	assert.Equal(t, 2, report.Skipped)
	assert.False(t, f.processed.Has(review.ID))
}

func TestAssistant_Query(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "default", want: "in:inbox is:unread"},
		{name: "custom", opts: Options{Query: "label:inbox"}, want: "label:inbox"},
		{
			name: "excluded senders",
			opts: Options{ExcludeFrom: []string{"bot@example.com", " ", "alerts@example.com"}},
			want: "in:inbox is:unread -from:bot@example.com -from:alerts@example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail := newFakeMailbox()
			a := New(Deps{Mail: mail}, tt.opts)
			assert.Equal(t, tt.want, a.Query())
		})
	}
}

func TestNotification(t *testing.T) {
	c := Classification{Tier: TierEscalate, Reason: "vip sender", Source: "rules", Confidence: 1}

	msg := Notification(gmail.Email{ID: "m1", FromAddress: "boss@example.com", Subject: "Board deck"}, c, "me@example.com")
	assert.Equal(t, "[Escalation] Board deck", msg.Subject)
	assert.Equal(t, mailer.KindEscalation, msg.Kind)
	assert.Contains(t, msg.Text, "From: boss@example.com")
	assert.Contains(t, msg.Text, "#inbox/m1")

	again := Notification(gmail.Email{ID: "m2", Subject: msg.Subject}, c, "me@example.com")
	assert.Equal(t, "[Escalation] Board deck", again.Subject)
}
