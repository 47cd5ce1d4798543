package toggl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/autopilot/internal/instrumentation"
)

// DefaultBaseURL is the Toggl Track API v9 endpoint.
const DefaultBaseURL = "https://api.track.toggl.com/api/v9"

const maxResponseBytes = 8 << 20

// Config holds configuration for creating a Toggl Client.
type Config struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
}

// Client reads time entries from Toggl Track.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewClient creates a Toggl client.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("toggl: token is required")
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

// TimeEntry is a Toggl time entry. A running entry has a negative Duration
// and no Stop time.
type TimeEntry struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop,omitempty"`
	Duration    int64      `json:"duration"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// Running reports whether the entry is still being tracked.
func (e TimeEntry) Running() bool {
	return e.Duration < 0
}

// Elapsed returns the tracked duration. Running entries count until now.
func (e TimeEntry) Elapsed(now time.Time) time.Duration {
	if e.Running() {
		if now.Before(e.Start) {
			return 0
		}
		return now.Sub(e.Start)
	}
	return time.Duration(e.Duration) * time.Second
}

// APIError represents a non-2xx response from the Toggl API.
type APIError struct {
	StatusCode int
	Body       string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("toggl: HTTP %d: %s", err.StatusCode, err.Body)
}

// TimeEntries returns the entries started in [start, end).
func (c *Client) TimeEntries(ctx context.Context, start, end time.Time) ([]TimeEntry, error) {
	query := url.Values{
		"start_date": {start.UTC().Format(time.RFC3339)},
		"end_date":   {end.UTC().Format(time.RFC3339)},
	}

	var entries []TimeEntry
	err := c.metrics.Observe(ctx, instrumentation.ServiceToggl, "time_entries", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/time_entries?"+query.Encode(), nil)
		if err != nil {
			return fmt.Errorf("toggl: creating request: %w", err)
		}
		req.SetBasicAuth(c.token, "api_token")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("toggl: GET time entries: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("toggl: reading response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		if err := json.Unmarshal(body, &entries); err != nil {
			return fmt.Errorf("toggl: decoding time entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
