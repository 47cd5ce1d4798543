package replies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{line: "done 1", want: Command{Action: ActionComplete, Numbers: []int{1}}},
		{line: "Done 1, 3 and 5", want: Command{Action: ActionComplete, Numbers: []int{1, 3, 5}}},
		{line: "complete #2 #4", want: Command{Action: ActionComplete, Numbers: []int{2, 4}}},
		{line: "d 1-3", want: Command{Action: ActionComplete, Numbers: []int{1, 2, 3}}},
		{line: "x 2,2,3", want: Command{Action: ActionComplete, Numbers: []int{2, 3}}},
		{line: "defer 2", want: Command{Action: ActionReschedule, Numbers: []int{2}, When: "tomorrow"}},
		{line: "snooze 2 3 to next monday", want: Command{Action: ActionReschedule, Numbers: []int{2, 3}, When: "next monday"}},
		{line: "defer 1 3 days", want: Command{Action: ActionReschedule, Numbers: []int{1}, When: "3 days"}},
		{line: "defer 2 2 weeks", want: Command{Action: ActionReschedule, Numbers: []int{2}, When: "2 weeks"}},
		{line: "defer 1, 4 1 Month", want: Command{Action: ActionReschedule, Numbers: []int{1, 4}, When: "1 Month"}},
		{line: "defer 1 in 3 days", want: Command{Action: ActionReschedule, Numbers: []int{1}, When: "in 3 days"}},
		{line: "defer 3 days", wantErr: true},
		{line: "postpone 4 2026-03-20", want: Command{Action: ActionReschedule, Numbers: []int{4}, When: "2026-03-20"}},
		{line: "delete 6", want: Command{Action: ActionDelete, Numbers: []int{6}}},
		{line: "rm 6 7", want: Command{Action: ActionDelete, Numbers: []int{6, 7}}},
		{line: "p1 3", want: Command{Action: ActionPriority, Numbers: []int{3}, Priority: 1}},
		{line: "P4 1,2", want: Command{Action: ActionPriority, Numbers: []int{1, 2}, Priority: 4}},
		{line: "priority 5 2", want: Command{Action: ActionPriority, Numbers: []int{5}, Priority: 2}},
		{line: "priority 5 6 p3", want: Command{Action: ActionPriority, Numbers: []int{5, 6}, Priority: 3}},
		{line: "delegate 7", want: Command{Action: ActionDelegate, Numbers: []int{7}}},
		{line: "comet 7 8", want: Command{Action: ActionDelegate, Numbers: []int{7, 8}}},
		{line: "add Call plumber", want: Command{Action: ActionAdd, Content: "Call plumber"}},
		{line: "add Renew due diligence doc due next friday", want: Command{Action: ActionAdd, Content: "Renew due diligence doc", When: "next friday"}},
		{line: "done", wantErr: true},
		{line: "done soon", wantErr: true},
		{line: "done 1 please", wantErr: true},
		{line: "d 0", wantErr: true},
		{line: "d 1-100", wantErr: true},
		{line: "priority 5", wantErr: true},
		{line: "priority 5 urgent", wantErr: true},
		{line: "p5 1", wantErr: true},
		{line: "add", wantErr: true},
		{line: "thanks!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.want.Line = tt.line
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	body := "Done 1 2\n\n- defer 3 to friday\nthanks!\n* add Buy stamps due tomorrow\n\nOn Mon, Mar 2, 2026 at 8:30 AM Autopilot <bot@example.com> wrote:\n> 1. [P1] File taxes\n"

	res := Parse(body)
	require.Len(t, res.Commands, 3)
	assert.Equal(t, ActionComplete, res.Commands[0].Action)
	assert.Equal(t, ActionReschedule, res.Commands[1].Action)
	assert.Equal(t, "friday", res.Commands[1].When)
	assert.Equal(t, ActionAdd, res.Commands[2].Action)
	assert.Equal(t, "Buy stamps", res.Commands[2].Content)
	assert.Equal(t, []string{"thanks!"}, res.Unrecognized)
}

func TestParse_Empty(t *testing.T) {
	res := Parse("\n\n> quoted only\n")
	assert.Empty(t, res.Commands)
	assert.Empty(t, res.Unrecognized)
}
