package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/teemow/autopilot/internal/instrumentation"
)

// DefaultBaseURL is the Todoist REST v2 endpoint.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Config holds configuration for creating a Todoist Client.
type Config struct {
	// Token is the personal API token. Required.
	Token string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Metrics records one api_operations_total sample per request. Optional.
	Metrics *instrumentation.Metrics
}

// Client is a Todoist REST API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewClient creates a Todoist client from the given configuration.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("todoist: token is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		metrics:    config.Metrics,
	}, nil
}

// ListTasks returns the active tasks matching a Todoist filter query such as
// "overdue | today". An empty filter returns all active tasks.
func (c *Client) ListTasks(ctx context.Context, filter string) ([]Task, error) {
	path := "/tasks"
	if filter != "" {
		path += "?" + url.Values{"filter": {filter}}.Encode()
	}
	var tasks []Task
	if err := c.get(ctx, "list_tasks", path, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single active task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.get(ctx, "get_task", "/tasks/"+url.PathEscape(id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "list_projects", "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CloseTask completes a task. Recurring tasks advance to their next date.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	return c.post(ctx, "close_task", "/tasks/"+url.PathEscape(id)+"/close", nil, nil)
}

// DeleteTask permanently deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete_task", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
	return err
}

// UpdateTask applies the non-nil fields of update and returns the updated task.
func (c *Client) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*Task, error) {
	var task Task
	if err := c.post(ctx, "update_task", "/tasks/"+url.PathEscape(id), update, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task and returns it.
func (c *Client) CreateTask(ctx context.Context, task NewTask) (*Task, error) {
	if strings.TrimSpace(task.Content) == "" {
		return nil, errors.New("todoist: task content is required")
	}
	var created Task
	if err := c.post(ctx, "create_task", "/tasks", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) get(ctx context.Context, op, path string, result any) error {
	body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("todoist: decoding %s response: %w", op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, requestBody, result any) error {
	body, err := c.do(ctx, op, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("todoist: decoding %s response: %w", op, err)
	}
	return nil
}

// do executes an authenticated request and returns the response body. Non-2xx
// responses are returned as *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, requestBody any) ([]byte, error) {
	var body []byte
	err := c.metrics.Observe(ctx, instrumentation.ServiceTodoist, op, func(ctx context.Context) error {
		var bodyReader io.Reader
		if requestBody != nil {
			encoded, err := json.Marshal(requestBody)
			if err != nil {
				return fmt.Errorf("todoist: encoding request body: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("todoist: creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if requestBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("todoist: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("todoist: reading response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
