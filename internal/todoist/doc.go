// Package todoist is a small client for the Todoist REST API covering the
// task operations used by the daily review and the reply-command executor.
package todoist
