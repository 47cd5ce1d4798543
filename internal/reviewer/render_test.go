package reviewer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autopilot/internal/analyzer"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/toggl"
)

func TestRender(t *testing.T) {
	review := Bucketize(sampleTasks(), testNow, 7)
	for _, item := range []*Item{&review.Upcoming[0]} {
		item.Analysis = analyzer.Classify(item.Task)
	}
	summary := toggl.Summarize([]toggl.TimeEntry{{Description: "Writing", Duration: 5400}}, testNow)
	review.Time = &summary

	subject, html, text, err := Render(review, "")
	require.NoError(t, err)

	assert.Equal(t, "Daily review for Mon Mar 2: 3 overdue, 3 today", subject)

	assert.Contains(t, html, "Overdue (3)")
	assert.Contains(t, html, "File taxes")
	assert.Contains(t, html, "[P1]")
	assert.Contains(t, html, `Reply "delegate 7" to hand it to Comet.`)
	assert.Contains(t, html, "Time tracked today (1h 30m)")

	assert.Contains(t, text, "1. [P1] File taxes (Fri Feb 27)")
	assert.Contains(t, text, "8. [P4] Someday (no date)")
	assert.Contains(t, text, "3. [P4] Water plants (Sun Mar 1)")
	assert.Contains(t, text, "- Writing: 1h 30m")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestRender_EscapesHTML(t *testing.T) {
	review := Bucketize([]todoist.Task{
		{ID: "x", Content: "<script>alert(1)</script>", Due: &todoist.Due{Date: "2026-03-02"}},
	}, testNow, 7)

	_, html, text, err := Render(review, "Review")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, text, "<script>alert(1)</script>")
}

func TestRender_Empty(t *testing.T) {
	review := &Review{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Warnings: []string{"Time tracking data is unavailable today."}}

	subject, html, text, err := Render(review, "Daily review")
	require.NoError(t, err)
	assert.Equal(t, "Daily review for Fri Jan 2: 0 overdue, 0 today", subject)
	assert.Contains(t, html, "Nothing due")
	assert.Contains(t, text, "! Time tracking data is unavailable today.")
}

func TestFormatDue(t *testing.T) {
	recurring := Item{
		Task:   todoist.Task{Due: &todoist.Due{Date: "2026-03-02", IsRecurring: true}},
		Due:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		HasDue: true,
	}
	assert.Equal(t, "Mon Mar 2 (recurring)", formatDue(recurring))

	timed := Item{
		Task:   todoist.Task{Due: &todoist.Due{Datetime: "2026-03-02T15:00:00Z"}},
		Due:    time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		HasDue: true,
	}
	assert.Equal(t, "Mon Mar 2 15:00", formatDue(timed))
	assert.Equal(t, "no date", formatDue(Item{}))
}
