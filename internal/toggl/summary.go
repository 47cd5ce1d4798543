package toggl

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary aggregates tracked time.
type Summary struct {
	Total         time.Duration
	Running       *TimeEntry
	ByDescription []DescriptionTotal
}

// DescriptionTotal is the tracked time for one entry description.
type DescriptionTotal struct {
	Description string
	Duration    time.Duration
}

// Summarize totals entries by description, longest first. Entries without a
// description are grouped under "(no description)".
func Summarize(entries []TimeEntry, now time.Time) Summary {
	var s Summary
	totals := make(map[string]time.Duration)

	for i := range entries {
		e := entries[i]
		d := e.Elapsed(now)
		s.Total += d

		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			desc = "(no description)"
		}
		totals[desc] += d

		if e.Running() {
			s.Running = &e
		}
	}

	s.ByDescription = make([]DescriptionTotal, 0, len(totals))
	for desc, d := range totals {
		s.ByDescription = append(s.ByDescription, DescriptionTotal{Description: desc, Duration: d})
	}
	sort.Slice(s.ByDescription, func(i, j int) bool {
		a, b := s.ByDescription[i], s.ByDescription[j]
		if a.Duration != b.Duration {
			return a.Duration > b.Duration
		}
		return a.Description < b.Description
	})
	return s
}

// FormatDuration renders d as "1h 05m" or "12m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
