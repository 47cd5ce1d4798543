package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPMetrics_RecordsRoutes(t *testing.T) {
	provider := createTestProvider(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/summary" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	})
	h := HTTPMetrics(provider.Metrics(), []string{"/api/summary"}, inner)

	for _, path := range []string{"/api/summary", "/wp-admin/secret-1", "/wp-admin/secret-2"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	scrape := rec.Body.String()

	assert.Contains(t, scrape, `path="/api/summary"`)
	assert.Contains(t, scrape, `path="other"`)
	assert.Contains(t, scrape, `status="404"`)
	assert.NotContains(t, scrape, "wp-admin")
}

func TestHTTPMetrics_NilMetricsPassesThrough(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	HTTPMetrics(nil, nil, inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
