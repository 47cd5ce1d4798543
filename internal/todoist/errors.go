package todoist

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the Todoist API. Todoist error
// bodies are plain text.
type APIError struct {
	StatusCode int
	Body       string
}

func (err *APIError) Error() string {
	if err.Body == "" {
		return fmt.Sprintf("todoist: HTTP %d", err.StatusCode)
	}
	return fmt.Sprintf("todoist: HTTP %d: %s", err.StatusCode, err.Body)
}

// IsNotFound reports whether err is a Todoist 404 response. Todoist answers
// 404 for tasks that were completed or deleted elsewhere.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}
