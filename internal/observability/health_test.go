package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthReadyHandler(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	t.Run("all_checks_pass", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HealthReadyHandler(map[string]Pinger{"postgres": ok, "redis": ok}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing_check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HealthReadyHandler(map[string]Pinger{"redis": down}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "redis")
	})
}
