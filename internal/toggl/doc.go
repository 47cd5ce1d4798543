// Package toggl reads time entries from Toggl Track for the daily review's
// time-tracking section.
package toggl
