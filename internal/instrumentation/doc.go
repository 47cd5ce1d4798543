// Package instrumentation provides OpenTelemetry metrics, tracing and tool
// audit logging for autopilot.
//
// # Metrics
//
// HTTP (dashboard and streamable-http MCP transport):
//   - http_requests_total, http_request_duration_seconds
//
// Upstream APIs (YNAB, Todoist, Toggl, Gmail, SES, LLM CLI):
//   - api_operations_total{service,operation,status}
//   - api_operation_duration_seconds
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// Batch jobs:
//   - assistant_messages_total{tier,action,status}
//   - review_emails_total{status}
//   - reply_commands_total{command,status}
//   - dashboard_cache_lookups_total{result}
//
// # Configuration
//
// Instrumentation is configured from the environment (see DefaultConfig):
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGS
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	err = provider.Metrics().Observe(ctx, instrumentation.ServiceYNAB, "list_accounts", func(ctx context.Context) error {
//		accounts, err = client.Accounts(ctx, budgetID)
//		return err
//	})
package instrumentation
