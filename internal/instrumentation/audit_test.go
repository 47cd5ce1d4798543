package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation("ynab_create_transaction").
		WithService(ServiceYNAB, OperationCreate).
		WithReadOnly(false).
		WithArgs(map[string]any{"amount": 12.5, "payee": "Corner Cafe"})

	assert.False(t, ti.StartTime.IsZero())

	ti.CompleteWithError(errors.New("write tools are disabled"))
	assert.False(t, ti.Success)
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "write tools are disabled", ti.Error)

	ok := NewToolInvocation("ynab_list_budgets").CompleteSuccess()
	assert.True(t, ok.Success)
	assert.Equal(t, StatusSuccess, ok.Status())
	assert.Empty(t, ok.Error)
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("todoist_create_task").
		WithArgs(map[string]any{"content": "call mom", "due": "tomorrow"}).
		CompleteSuccess()

	keys := func(attrs []slog.Attr) map[string]slog.Value {
		out := map[string]slog.Value{}
		for _, a := range attrs {
			out[a.Key] = a.Value
		}
		return out
	}

	redacted := keys(ti.LogAttrs(false))
	require.Contains(t, redacted, "arg_names")
	assert.Equal(t, []string{"content", "due"}, redacted["arg_names"].Any())
	assert.NotContains(t, redacted, "args")

	full := keys(ti.LogAttrs(true))
	require.Contains(t, full, "args")
	assert.NotContains(t, full, "arg_names")
	assert.Equal(t, slog.KindGroup, full["args"].Kind())
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLogger(logger)
	al.LogToolInvocation(NewToolInvocation("rewards_best_card").CompleteSuccess())
	al.LogToolInvocation(NewToolInvocation("todoist_complete_task").CompleteWithError(errors.New("not found")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "tool_executed", first["msg"])
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "audit", first["component"])
	assert.Equal(t, "tool_failed", second["msg"])
	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, "not found", second["error"])
}

func TestAuditLogger_DisabledAndNil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false}).
		LogToolInvocation(NewToolInvocation("x").CompleteSuccess())
	assert.Empty(t, buf.String())

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() {
		nilLogger.LogToolInvocation(NewToolInvocation("x").CompleteSuccess())
	})
}
