// Package cmd implements the command-line interface for autopilot.
//
// This package provides the following commands:
//   - serve: Start the MCP server with YNAB, Todoist and rewards tools
//   - assistant run: Triage unread Gmail into tiers and act on each message
//   - review send: Email the Todoist daily review and save its task numbers
//   - replies poll: Execute the commands found in replies to the review
//   - dashboard: Serve the YNAB budget dashboard
//   - rewards best / rewards report: Query the credit card rewards tracker
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Batch commands read the YAML config (see internal/config), run once and
// exit. Scheduling is left to cron or launchd.
package cmd
