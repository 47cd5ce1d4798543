// Package todoist_tools provides MCP tools for Todoist tasks.
//
// todoist_list_tasks is always available. todoist_complete_task and
// todoist_create_task need write access. todoist_complete_task accepts
// several IDs and reports a result per task.
package todoist_tools
