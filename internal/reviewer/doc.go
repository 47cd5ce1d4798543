// Package reviewer builds the daily Todoist review email.
//
// Tasks are bucketed into overdue, today and upcoming, numbered 1..N across
// the buckets and annotated by the analyzer. The number to task mapping of
// the last sent review is persisted so that the replies package can resolve
// commands such as "done 3".
package reviewer
