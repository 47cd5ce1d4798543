package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrTier      = "tier"
	attrAction    = "action"
	attrCommand   = "command"
	attrResult    = "result"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics provides methods for recording observability metrics. The zero
// value is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Upstream API metrics (YNAB, Todoist, Toggl, Gmail, SES, LLM)
	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Batch job metrics
	assistantMessagesTotal metric.Int64Counter
	reviewEmailsTotal      metric.Int64Counter
	replyCommandsTotal     metric.Int64Counter

	// Dashboard cache
	cacheLookupsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.apiOperationsTotal, err = meter.Int64Counter(
		"api_operations_total",
		metric.WithDescription("Total number of upstream API operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create api_operations_total counter: %w", err)
	}

	if m.apiOperationDuration, err = meter.Float64Histogram(
		"api_operation_duration_seconds",
		metric.WithDescription("Upstream API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create api_operation_duration_seconds histogram: %w", err)
	}

	if m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	if m.assistantMessagesTotal, err = meter.Int64Counter(
		"assistant_messages_total",
		metric.WithDescription("Emails processed by the assistant by tier, action and status"),
		metric.WithUnit("{message}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_messages_total counter: %w", err)
	}

	if m.reviewEmailsTotal, err = meter.Int64Counter(
		"review_emails_total",
		metric.WithDescription("Daily review emails by status"),
		metric.WithUnit("{email}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create review_emails_total counter: %w", err)
	}

	if m.replyCommandsTotal, err = meter.Int64Counter(
		"reply_commands_total",
		metric.WithDescription("Reply commands executed by command and status"),
		metric.WithUnit("{command}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reply_commands_total counter: %w", err)
	}

	if m.cacheLookupsTotal, err = meter.Int64Counter(
		"dashboard_cache_lookups_total",
		metric.WithDescription("Dashboard snapshot cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create dashboard_cache_lookups_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
// path should be a route pattern, not the raw URL path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAPIOperation records a call to an upstream API.
//
// Parameters:
//   - service: upstream name (ynab, todoist, toggl, gmail, ses, llm)
//   - operation: client method, e.g. "list_tasks"
//   - status: "success" or "error"
func (m *Metrics) RecordAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.apiOperationsTotal.Add(ctx, 1, attrs)
	m.apiOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAssistantMessage records one email handled by the assistant.
func (m *Metrics) RecordAssistantMessage(ctx context.Context, tier int, action, status string) {
	if m == nil || m.assistantMessagesTotal == nil {
		return
	}
	m.assistantMessagesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTier, TierLabel(tier)),
		attribute.String(attrAction, action),
		attribute.String(attrStatus, status),
	))
}

// RecordReviewEmail records a daily review send attempt.
func (m *Metrics) RecordReviewEmail(ctx context.Context, status string) {
	if m == nil || m.reviewEmailsTotal == nil {
		return
	}
	m.reviewEmailsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordReplyCommand records one executed reply command.
func (m *Metrics) RecordReplyCommand(ctx context.Context, command, status string) {
	if m == nil || m.replyCommandsTotal == nil {
		return
	}
	m.replyCommandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	))
}

// RecordCacheLookup records a dashboard cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil || m.cacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// Observe times fn and records it as an API operation. It is the helper the
// REST clients use around each request.
func (m *Metrics) Observe(ctx context.Context, service, operation string, fn func(context.Context) error) error {
	ctx, span := StartAPISpan(ctx, service, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := StatusSuccess
	if err != nil {
		status = StatusError
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	m.RecordAPIOperation(ctx, service, operation, status, time.Since(start))
	return err
}
