package todoist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Token:      "test-token",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_ListTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "overdue | today", r.URL.Query().Get("filter"))
		_, _ = io.WriteString(w, `[
			{"id":"101","content":"Pay rent","priority":4,"due":{"date":"2026-03-01","string":"every month","is_recurring":true},"labels":["home"]},
			{"id":"102","content":"Call dentist","priority":1}
		]`)
	})
	client := newTestClient(t, mux)

	tasks, err := client.ListTasks(context.Background(), "overdue | today")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "101", tasks[0].ID)
	require.NotNil(t, tasks[0].Due)
	assert.True(t, tasks[0].Due.IsRecurring)
	assert.Equal(t, []string{"home"}, tasks[0].Labels)
	assert.Nil(t, tasks[1].Due)
}

func TestClient_WriteOperations(t *testing.T) {
	var closed, deleted string
	var update map[string]any
	var created NewTask

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		closed = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		_, _ = io.WriteString(w, `{"id":"`+r.PathValue("id")+`","content":"Pay rent","priority":3}`)
	})
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		_, _ = io.WriteString(w, `{"id":"900","content":"`+created.Content+`"}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, client.CloseTask(ctx, "101"))
	assert.Equal(t, "101", closed)

	require.NoError(t, client.DeleteTask(ctx, "102"))
	assert.Equal(t, "102", deleted)

	priority := PriorityHigh
	task, err := client.UpdateTask(ctx, "101", TaskUpdate{Priority: &priority, DueString: "next monday"})
	require.NoError(t, err)
	assert.Equal(t, 3, task.Priority)
	assert.Equal(t, map[string]any{"priority": float64(3), "due_string": "next monday"}, update)

	newTask, err := client.CreateTask(ctx, NewTask{Content: "Buy milk", DueString: "tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "900", newTask.ID)
	assert.Equal(t, "tomorrow", created.DueString)

	_, err = client.CreateTask(ctx, NewTask{Content: "  "})
	assert.Error(t, err)
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Task not found", http.StatusNotFound)
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	_, err := client.GetTask(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "todoist: HTTP 404: Task not found", err.Error())

	_, err = client.ListProjects(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestClient_ContextCanceled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	client := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListProjects(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
