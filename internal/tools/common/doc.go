// Package common provides shared helpers for the MCP tool packages:
// instrumentation wrappers, argument readers and JSON results.
package common
