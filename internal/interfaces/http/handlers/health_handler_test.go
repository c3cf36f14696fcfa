package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

func newHealthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/readyz", h.Ready)
	return r
}

func TestHealth(t *testing.T) {
	r := newHealthRouter(NewHealthHandler("1.2.3", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1.2.3")
}

func TestReady_AllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	r := newHealthRouter(NewHealthHandler("dev", map[string]DependencyCheck{
		"postgres": ok,
		"redis":    ok,
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestReady_DependencyDown(t *testing.T) {
	r := newHealthRouter(NewHealthHandler("dev", map[string]DependencyCheck{
		"postgres": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			return apperrors.New(apperrors.ErrCodeCacheError, "redis ping failed")
		},
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
	assert.Contains(t, w.Body.String(), "redis ping failed")
}
