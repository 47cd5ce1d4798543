// Package resources provides MCP resources for autopilot.
//
// Resources are read-only data sources that MCP clients can fetch without
// calling a tool. The server exposes:
//
//   - ynab://budgets, the budgets the configured token can access
//   - rewards://cards, the configured card catalog and reward categories
//
// The rewards resource is only registered when cards are configured.
package resources
