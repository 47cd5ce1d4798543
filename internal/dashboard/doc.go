// Package dashboard serves a YNAB budget dashboard.
//
// Service builds a Snapshot of one budget month: account balances and net
// worth, month totals, overspent categories and the top spending categories.
// Snapshots are cached per month for a short TTL so page reloads do not spend
// the YNAB rate limit.
//
// Server exposes the snapshot as a server-rendered HTML page and as JSON:
//
//	GET /                      HTML dashboard
//	GET /api/summary           full snapshot
//	GET /api/accounts          accounts and net worth
//	GET /api/categories        month categories
//	GET /api/spending          top spending categories
//
// Every endpoint takes an optional month=YYYY-MM query parameter. The health
// endpoints of the server package are mounted alongside.
package dashboard
