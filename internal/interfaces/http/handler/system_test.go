package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grndstats/backend/internal/interfaces/http/dto"
	"github.com/grndstats/backend/tests/testutil"
)

func serveSystem(h gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	h(c)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) (dto.Response, map[string]any) {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("grnd-stats", "1.2.3", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("grnd-stats", "1.2.3", nil)

	w := serveSystem(h.GetSystemInfo, "/system/info")

	assert.Equal(t, http.StatusOK, w.Code)
	resp, data := decodeData(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "grnd-stats", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("grnd-stats", "1.2.3", nil)

	engine := gin.New()
	engine.GET("/system/ping", h.Ping)

	w, env := testutil.Do(t, engine, http.MethodGet, "/system/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	data := testutil.Data[map[string]string](t, env)
	assert.Equal(t, "pong", data["message"])
	_, err := time.Parse(time.RFC3339, data["timestamp"])
	assert.NoError(t, err)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		w := serveSystem(NewSystemHandler("x", "y", nil).Health, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		resp, data := decodeData(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "ok", data["status"])
	})

	t.Run("all healthy", func(t *testing.T) {
		h := NewSystemHandler("x", "y", map[string]HealthCheck{
			"cache": func(context.Context) error { return nil },
		})
		w := serveSystem(h.Health, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		_, data := decodeData(t, w)
		assert.Equal(t, map[string]any{"cache": "ok"}, data["checks"])
	})

	t.Run("failing dependency", func(t *testing.T) {
		var sawDeadline bool
		h := NewSystemHandler("x", "y", map[string]HealthCheck{
			"cache": func(ctx context.Context) error {
				_, sawDeadline = ctx.Deadline()
				return errors.New("connection refused")
			},
			"database": func(context.Context) error { return nil },
		})
		w := serveSystem(h.Health, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp, data := decodeData(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "degraded", data["status"])
		assert.Equal(t, map[string]any{"cache": "connection refused", "database": "ok"}, data["checks"])
		assert.True(t, sawDeadline)
	})
}
