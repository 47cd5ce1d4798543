package todoist_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/tools/batch"
	"github.com/teemow/autopilot/internal/ynab"
)

func newServerContext(t *testing.T, mux *http.ServeMux) *server.ServerContext {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	yc, err := ynab.NewClient(ynab.Config{Token: "y"})
	require.NoError(t, err)
	tc, err := todoist.NewClient(todoist.Config{Token: "t", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), server.Options{YNAB: yc, Todoist: tc})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegisterTodoistTools_WithoutClient(t *testing.T) {
	yc, err := ynab.NewClient(ynab.Config{Token: "y"})
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), server.Options{YNAB: yc})
	require.NoError(t, err)

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	assert.NoError(t, RegisterTodoistTools(s, sc, false))
}

func TestHandleListTasks(t *testing.T) {
	var filter string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		_, _ = io.WriteString(w, `[
			{"id":"1","content":"Pay rent","priority":4,"due":{"date":"2026-03-01","is_recurring":true}},
			{"id":"2","content":"Call mom","priority":1,"due":{"date":"2026-03-01","datetime":"2026-03-01T18:00:00Z"}}
		]`)
	})
	sc := newServerContext(t, mux)

	result, err := handleListTasks(context.Background(), callRequest(nil), sc)
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter, filter)

	var tasks []taskView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "P1", tasks[0].Priority)
	assert.True(t, tasks[0].Recurring)
	assert.Equal(t, "P4", tasks[1].Priority)
	assert.Equal(t, "2026-03-01T18:00:00Z", tasks[1].Due)

	_, err = handleListTasks(context.Background(), callRequest(map[string]any{"filter": "#Work"}), sc)
	require.NoError(t, err)
	assert.Equal(t, "#Work", filter)
}

func TestHandleCompleteTask(t *testing.T) {
	var (
		mu     sync.Mutex
		closed []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "404" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		closed = append(closed, id)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	sc := newServerContext(t, mux)

	result, err := handleCompleteTask(context.Background(), callRequest(map[string]any{"taskIds": "1, 404, 2, 1"}), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError, "partial success is not a tool error")

	var summary batch.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, "task 404 not found", summary.Results[1].Error)
	assert.Equal(t, []string{"1", "2"}, closed)

	result, err = handleCompleteTask(context.Background(), callRequest(map[string]any{"taskIds": []any{"404"}}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError, "all items failing is a tool error")

	result, err = handleCompleteTask(context.Background(), callRequest(nil), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "taskIds is required")
}

func TestHandleCreateTask(t *testing.T) {
	var created todoist.NewTask
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		_, _ = io.WriteString(w, `{"id":"new-1","content":"Renew passport","priority":3,"labels":["errands"]}`)
	})
	sc := newServerContext(t, mux)

	result, err := handleCreateTask(context.Background(), callRequest(map[string]any{
		"content":   "Renew passport",
		"dueString": "next monday",
		"priority":  2.0,
		"labels":    "errands",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	assert.Equal(t, 3, created.Priority, "P2 is API priority 3")
	assert.Equal(t, "next monday", created.DueString)
	assert.Equal(t, []string{"errands"}, created.Labels)

	var task taskView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &task))
	assert.Equal(t, "new-1", task.ID)
	assert.Equal(t, "P2", task.Priority)
}

func TestHandleCreateTask_Validation(t *testing.T) {
	sc := newServerContext(t, http.NewServeMux())

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{name: "missing content", args: map[string]any{}, wantErr: "content is required"},
		{name: "priority out of range", args: map[string]any{"content": "x", "priority": 5.0}, wantErr: "priority must be"},
		{name: "fractional priority", args: map[string]any{"content": "x", "priority": 1.5}, wantErr: "priority must be"},
		{name: "priority not a number", args: map[string]any{"content": "x", "priority": "high"}, wantErr: "priority must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateTask(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantErr)
		})
	}
}
