package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/autopilot/internal/todoist"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		task          todoist.Task
		wantCategory  Category
		wantDelegable bool
	}{
		{"bill", todoist.Task{Content: "Pay electricity bill"}, CategoryFinance, false},
		{"dentist", todoist.Task{Content: "Call dentist for cleaning"}, CategoryHealth, false},
		{"reply", todoist.Task{Content: "Reply to Jamie about Saturday"}, CategoryCommunication, false},
		{"research", todoist.Task{Content: "Research standing desks"}, CategoryResearch, true},
		{"compare", todoist.Task{Content: "Compare flight prices to Denver"}, CategoryResearch, true},
		{"book", todoist.Task{Content: "Book hotel for conference"}, CategoryOther, true},
		{"groceries", todoist.Task{Content: "Buy groceries"}, CategoryErrand, false},
		{"fix", todoist.Task{Content: "Fix the leaking faucet"}, CategoryHome, false},
		{"slides", todoist.Task{Content: "Prepare slides for Q3 planning"}, CategoryWork, false},
		{"passport", todoist.Task{Content: "Renew passport"}, CategoryAdmin, false},
		{"description counts", todoist.Task{Content: "Sort out", Description: "dishes and laundry"}, CategoryHome, false},
		{"label delegates", todoist.Task{Content: "Something vague", Labels: []string{"comet"}}, CategoryOther, true},
		{"word boundary", todoist.Task{Content: "Repaint the shed"}, CategoryOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.task)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantDelegable, got.Delegable)
			assert.Equal(t, SourceRules, got.Source)
			assert.NotEmpty(t, got.Suggestion)
		})
	}
}

func TestAnalyze_RuleMatchSkipsLLM(t *testing.T) {
	completer := &fakeCompleter{reply: `{"category":"work"}`}
	a := New(completer, nil)

	got := a.Analyze(context.Background(), todoist.Task{Content: "Pay rent"})
	assert.Equal(t, CategoryFinance, got.Category)
	assert.Empty(t, completer.prompts)
}

func TestAnalyze_LLMRefinesUnknown(t *testing.T) {
	completer := &fakeCompleter{reply: "Sure!\n```json\n{\"category\": \"Errand\", \"suggestion\": \"Order online.\", \"delegable\": true}\n```"}
	a := New(completer, nil)

	got := a.Analyze(context.Background(), todoist.Task{Content: "Birthday gift for Alex", Description: "likes hiking"})
	assert.Equal(t, CategoryErrand, got.Category)
	assert.Equal(t, "Order online.", got.Suggestion)
	assert.True(t, got.Delegable)
	assert.Equal(t, SourceLLM, got.Source)

	if assert.Len(t, completer.prompts, 1) {
		assert.True(t, strings.Contains(completer.prompts[0], "Birthday gift for Alex"))
		assert.True(t, strings.Contains(completer.prompts[0], "likes hiking"))
	}
}

func TestAnalyze_LLMUnknownCategoryKeepsRules(t *testing.T) {
	completer := &fakeCompleter{reply: `{"category":"hobbies","suggestion":""}`}
	got := New(completer, nil).Analyze(context.Background(), todoist.Task{Content: "Birthday gift"})

	assert.Equal(t, CategoryOther, got.Category)
	assert.Equal(t, otherSuggestion, got.Suggestion)
	assert.Equal(t, SourceLLM, got.Source)
}

func TestAnalyze_LLMFailureFallsBack(t *testing.T) {
	for _, completer := range []*fakeCompleter{
		{err: errors.New("timeout")},
		{reply: "I cannot help with that."},
	} {
		got := New(completer, nil).Analyze(context.Background(), todoist.Task{Content: "Birthday gift"})
		assert.Equal(t, CategoryOther, got.Category)
		assert.Equal(t, SourceRules, got.Source)
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(CategoryAdmin))
	assert.True(t, IsKnown(CategoryOther))
	assert.False(t, IsKnown("hobbies"))
}
