package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(healthFunc(func(ctx context.Context) error { return nil }))(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]string
	AssertJSONResponse(t, w, http.StatusOK, &body)
	assert.Equal(t, "healthy", body["status"])

	w = httptest.NewRecorder()
	Health(healthFunc(func(ctx context.Context) error { return errors.New("down") }))(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	AssertJSONResponse(t, w, http.StatusServiceUnavailable, &body)
	assert.Equal(t, "down", body["database"])
}
