package ynab

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches any 404 response.
var ErrNotFound = errors.New("ynab: resource not found")

// APIError is a non-2xx response. YNAB returns
// {"error":{"id":"404.2","name":"resource_not_found","detail":"..."}}.
type APIError struct {
	StatusCode int
	ID         string
	Name       string
	Detail     string
}

func (err *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ynab: HTTP %d", err.StatusCode)
	if err.Name != "" {
		fmt.Fprintf(&b, " %s", err.Name)
	}
	if err.Detail != "" {
		fmt.Fprintf(&b, ": %s", err.Detail)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrNotFound) true for 404 responses.
func (err *APIError) Is(target error) bool {
	return target == ErrNotFound && err.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a 429 response. YNAB allows 200
// requests per hour per token.
func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusTooManyRequests
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	var envelope struct {
		Error struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Detail string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.ID = envelope.Error.ID
		apiErr.Name = envelope.Error.Name
		apiErr.Detail = envelope.Error.Detail
	}
	if apiErr.Detail == "" && apiErr.Name == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}
