package todoist

import (
	"fmt"
	"time"
)

// Todoist API priorities run backwards: 4 is the most urgent and is shown as
// "P1" in the apps.
const (
	PriorityUrgent = 4
	PriorityHigh   = 3
	PriorityMedium = 2
	PriorityNormal = 1
)

// Task is an active Todoist task.
type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Priority    int      `json:"priority"`
	Due         *Due     `json:"due,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Due is a task due date. Datetime is set only for tasks with a time of day.
type Due struct {
	Date        string `json:"date"`
	String      string `json:"string,omitempty"`
	Datetime    string `json:"datetime,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

// Project is a Todoist project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskUpdate holds the fields to change on a task. Nil and empty fields are
// left untouched.
type TaskUpdate struct {
	Content     *string   `json:"content,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
	DueString   string    `json:"due_string,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
}

// NewTask is the payload for CreateTask.
type NewTask struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
}

// DueDate returns the moment the task is due, interpreted in loc. Date-only
// tasks are due at midnight of that day. The second result is false when the
// task has no parsable due date.
func (t Task) DueDate(loc *time.Location) (time.Time, bool) {
	if t.Due == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if t.Due.Datetime != "" {
		if ts, err := time.Parse(time.RFC3339, t.Due.Datetime); err == nil {
			return ts.In(loc), true
		}
		// Floating datetimes carry no offset and follow the user's zone.
		if ts, err := time.ParseInLocation("2006-01-02T15:04:05", t.Due.Datetime, loc); err == nil {
			return ts, true
		}
	}
	if t.Due.Date != "" {
		if ts, err := time.ParseInLocation("2006-01-02", t.Due.Date, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// HasTime reports whether the task is due at a specific time of day.
func (t Task) HasTime() bool {
	return t.Due != nil && t.Due.Datetime != ""
}

// PriorityLabel returns the priority as shown in the Todoist apps, "P1".."P4".
func (t Task) PriorityLabel() string {
	p := t.Priority
	if p < PriorityNormal || p > PriorityUrgent {
		p = PriorityNormal
	}
	return fmt.Sprintf("P%d", 5-p)
}

// HasLabel reports whether the task carries label.
func (t Task) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// APIPriority converts a display priority (1 = P1, most urgent) into the API
// value. Out-of-range input returns 0.
func APIPriority(display int) int {
	if display < 1 || display > 4 {
		return 0
	}
	return 5 - display
}
