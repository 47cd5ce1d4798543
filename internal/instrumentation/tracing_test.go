package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("ynab_list_accounts").
		WithService(ServiceYNAB).
		WithOperation(OperationList).
		WithRun("run-1", true).
		WithResource("budget", "b-1").
		WithResource("", "").
		WithReadOnly(true).
		Build()

	got := attrMap(attrs)
	assert.Equal(t, "ynab_list_accounts", got[SpanAttrTool].AsString())
	assert.Equal(t, ServiceYNAB, got[SpanAttrService].AsString())
	assert.Equal(t, OperationList, got[SpanAttrOperation].AsString())
	assert.Equal(t, "run-1", got[SpanAttrRunID].AsString())
	assert.True(t, got[SpanAttrDryRun].AsBool())
	assert.Equal(t, "budget", got[SpanAttrResourceType].AsString())
	assert.Equal(t, "b-1", got[SpanAttrResourceID].AsString())
	assert.True(t, got[SpanAttrReadOnly].AsBool())
	assert.Len(t, attrs, 8)
}

func TestStartAPISpan_RecordsServiceAndOperation(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := StartAPISpan(context.Background(), ServiceTodoist, "close_task")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	SetSpanSuccess(span)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "todoist.close_task", spans[0].Name())
	got := attrMap(spans[0].Attributes())
	assert.Equal(t, ServiceTodoist, got[SpanAttrService].AsString())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestSetSpanError(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartToolSpan(context.Background(), "todoist_create_task")
	SetSpanError(span, errors.New("quota exceeded"))
	SetSpanError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.todoist_create_task", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "quota exceeded", spans[0].Status().Description)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx, span := noop.NewTracerProvider().Tracer("x").Start(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, GetTraceID(ctx))
}
