// Package server provides the MCP server context and the HTTP plumbing shared
// by the long-running commands (MCP over streamable HTTP and the budget
// dashboard).
//
// # Key Components
//
// ServerContext holds the upstream clients the MCP tools use: YNAB (always),
// Todoist and the rewards tracker (when configured), plus the optional metrics
// recorder and audit logger.
//
// HealthChecker serves Kubernetes style probes:
//   - /healthz: liveness
//   - /readyz: readiness, including registered checks
//   - /healthz/detailed: uptime, version and check results
//
// MetricsServer exposes the Prometheus scrape endpoint on a dedicated port so
// operational metrics are never served next to application traffic.
//
// HTTPMetrics is middleware recording http_requests_total and
// http_request_duration_seconds with bounded route labels.
package server
