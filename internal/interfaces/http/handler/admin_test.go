package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/interfaces/http/dto"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

type MockCacheAdmin struct {
	mock.Mock
}

func (m *MockCacheAdmin) InvalidateHolders(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCacheAdmin) WarmHolders(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCacheAdmin) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type stubWarmer struct {
	lastRun time.Time
	runs    int
	err     error
}

func (s stubWarmer) Status() (time.Time, int, error) {
	return s.lastRun, s.runs, s.err
}

func setupAdminRouter(h *AdminHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		c.Set(middleware.AdminSubjectKey, "ops")
	})
	router.POST("/admin/cache/holders/invalidate", h.InvalidateHolders)
	router.POST("/admin/cache/holders/warm", h.WarmHolders)
	router.DELETE("/admin/cache/:key", h.InvalidateKey)
	router.GET("/admin/scheduler", h.SchedulerStatus)
	return router
}

func serve(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestAdminHandler_InvalidateHolders(t *testing.T) {
	admin := new(MockCacheAdmin)
	admin.On("InvalidateHolders", mock.Anything).Return(nil)
	router := setupAdminRouter(NewAdminHandler(admin, "dune_data_default", nil, ""))

	w := serve(router, http.MethodPost, "/admin/cache/holders/invalidate")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"key":"dune_data_default"}}`, w.Body.String())
	admin.AssertExpectations(t)
}

func TestAdminHandler_WarmHolders(t *testing.T) {
	admin := new(MockCacheAdmin)
	router := setupAdminRouter(NewAdminHandler(admin, "dune_data_default", nil, ""))

	admin.On("WarmHolders", mock.Anything).Return(42, nil).Once()
	w := serve(router, http.MethodPost, "/admin/cache/holders/warm")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"holders":42}}`, w.Body.String())

	admin.On("WarmHolders", mock.Anything).
		Return(0, shared.NewUpstreamError("dune", "query results", 500, errors.New("boom"))).Once()
	w = serve(router, http.MethodPost, "/admin/cache/holders/warm")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "dune request failed", decodeError(t, w).Message)
}

func TestAdminHandler_InvalidateKey(t *testing.T) {
	admin := new(MockCacheAdmin)
	admin.On("Invalidate", mock.Anything, "profile_42").Return(nil)
	admin.On("Invalidate", mock.Anything, "bad key").
		Return(fmt.Errorf("%w: invalid cache key %q", shared.ErrInvalidInput, "bad key"))
	router := setupAdminRouter(NewAdminHandler(admin, "dune_data_default", nil, ""))

	w := serve(router, http.MethodDelete, "/admin/cache/profile_42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"key":"profile_42"}}`, w.Body.String())

	w = serve(router, http.MethodDelete, "/admin/cache/bad%20key")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).Code)
}

func TestAdminHandler_SchedulerStatus(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := setupAdminRouter(NewAdminHandler(new(MockCacheAdmin), "k", nil, ""))

		w := serve(router, http.MethodGet, "/admin/scheduler")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"enabled":false,"runs":0}}`, w.Body.String())
	})

	t.Run("with runs", func(t *testing.T) {
		last := time.Date(2026, 1, 23, 12, 0, 0, 0, time.UTC)
		warmer := stubWarmer{lastRun: last, runs: 4, err: errors.New("dune timeout")}
		router := setupAdminRouter(NewAdminHandler(new(MockCacheAdmin), "k", warmer, "@every 30m"))

		w := serve(router, http.MethodGet, "/admin/scheduler")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{
			"enabled":true,
			"schedule":"@every 30m",
			"last_run":"2026-01-23T12:00:00Z",
			"runs":4,
			"last_error":"dune timeout"
		}}`, w.Body.String())
	})
}
