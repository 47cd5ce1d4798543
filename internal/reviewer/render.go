package reviewer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/toggl"
)

//go:embed templates/review.html.tmpl templates/review.txt.tmpl
var templateFS embed.FS

var funcs = map[string]any{
	"priority": func(t todoist.Task) string { return t.PriorityLabel() },
	"due":      formatDue,
	"duration": toggl.FormatDuration,
	"urgent":   func(t todoist.Task) bool { return t.Priority >= todoist.PriorityHigh },
}

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("review.html.tmpl").
			Funcs(htmltemplate.FuncMap(funcs)).
			ParseFS(templateFS, "templates/review.html.tmpl"))
	textTemplate = texttemplate.Must(texttemplate.New("review.txt.tmpl").
			Funcs(texttemplate.FuncMap(funcs)).
			ParseFS(templateFS, "templates/review.txt.tmpl"))
)

type section struct {
	Title string
	Items []Item
}

type view struct {
	Subject  string
	Date     string
	Sections []section
	Empty    bool
	Time     *toggl.Summary
	Warnings []string
}

// Subject returns the review email subject, for example
// "Daily review for Mon Jan 2: 3 overdue, 5 today".
func Subject(review *Review, prefix string) string {
	if prefix == "" {
		prefix = "Daily review"
	}
	return fmt.Sprintf("%s for %s: %d overdue, %d today",
		prefix, review.Date.Format("Mon Jan 2"), len(review.Overdue), len(review.Today))
}

// Render produces the subject and the HTML and plain-text bodies.
func Render(review *Review, subjectPrefix string) (subject, html, text string, err error) {
	subject = Subject(review, subjectPrefix)

	v := view{
		Subject:  subject,
		Date:     review.Date.Format("Monday, January 2"),
		Time:     review.Time,
		Warnings: review.Warnings,
	}
	for _, s := range []section{
		{"Overdue", review.Overdue},
		{"Today", review.Today},
		{"Upcoming", review.Upcoming},
	} {
		if len(s.Items) > 0 {
			v.Sections = append(v.Sections, s)
		}
	}
	v.Empty = len(v.Sections) == 0

	var hb, tb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, v); err != nil {
		return "", "", "", fmt.Errorf("failed to render review html: %w", err)
	}
	if err := textTemplate.Execute(&tb, v); err != nil {
		return "", "", "", fmt.Errorf("failed to render review text: %w", err)
	}
	return subject, hb.String(), strings.TrimSpace(tb.String()) + "\n", nil
}

func formatDue(item Item) string {
	if !item.HasDue {
		return "no date"
	}
	var s string
	if item.Task.HasTime() {
		s = item.Due.Format("Mon Jan 2 15:04")
	} else {
		s = item.Due.Format("Mon Jan 2")
	}
	if item.Task.Due != nil && item.Task.Due.IsRecurring {
		s += " (recurring)"
	}
	return s
}
