package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autopilot/internal/gmail"
)

func TestDrafter_Draft(t *testing.T) {
	fake := &fakeCompleter{reply: "```\nTuesday works for me.\n\nSam\n```"}
	d := NewDrafter(fake, DrafterOptions{OwnerName: "Sam", Style: "casual, no exclamation marks"})

	body, err := d.Draft(context.Background(), gmail.Email{
		FromAddress: "alex@example.net",
		Subject:     "Lunch next week",
		Body:        "Can you make Tuesday?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tuesday works for me.\n\nSam", body)

	require.Len(t, fake.prompts, 1)
	p := fake.prompts[0]
	assert.Contains(t, p, "on behalf of Sam")
	assert.Contains(t, p, "Style notes: casual, no exclamation marks")
	assert.Contains(t, p, "Sign off as: Sam")
	assert.Contains(t, p, "From: alex@example.net")
	assert.Contains(t, p, "Can you make Tuesday?")
}

func TestDrafter_Errors(t *testing.T) {
	_, err := NewDrafter(nil, DrafterOptions{}).Draft(context.Background(), gmail.Email{})
	assert.ErrorIs(t, err, ErrNoLLM)

	var nilDrafter *Drafter
	_, err = nilDrafter.Draft(context.Background(), gmail.Email{})
	assert.ErrorIs(t, err, ErrNoLLM)

	_, err = NewDrafter(&fakeCompleter{reply: "  \n"}, DrafterOptions{}).Draft(context.Background(), gmail.Email{})
	assert.ErrorContains(t, err, "empty draft")

	cliErr := errors.New("timeout")
	_, err = NewDrafter(&fakeCompleter{err: cliErr}, DrafterOptions{}).Draft(context.Background(), gmail.Email{})
	assert.ErrorIs(t, err, cliErr)
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain reply", "plain reply"},
		{"```\nfenced\n```", "fenced\n"},
		{"```text\nfenced\n```", "fenced\n"},
		{"```only```", "only"},
		{"``` ```", " "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFence(tt.in), tt.in)
	}
}
