// Package ynab_tools exposes the YNAB API as MCP tools.
//
// Read tools are always registered. ynab_create_transaction and
// ynab_update_category_budget are registered only when the server runs
// with write access (--yolo).
//
// Amounts in tool input are dollars. Amounts in tool output carry both the
// raw milliunits and a formatted string:
//
//	"balance": {"milliunits": -12300, "formatted": "-$12.30"}
package ynab_tools
