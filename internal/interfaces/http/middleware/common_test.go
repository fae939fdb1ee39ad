package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func TestCORS_DefaultConfig(t *testing.T) {
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", okHandler)

	t.Run("cross-origin request gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://malicious.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight ends with 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://some-origin.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_Whitelist(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://warpcast.com", "http://localhost:3000"}

	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/test", okHandler)

	for _, origin := range cfg.AllowOrigins {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://warpcast.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_Wildcard(t *testing.T) {
	router := gin.New()
	router.Use(CORS(CORSConfig{AllowOrigins: []string{"*"}}))
	router.GET("/test", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://anywhere.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.String(http.StatusOK, "ok")
	})

	t.Run("generates uuid", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "trace-abc-123", seen)
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", MaxRequestIDLength+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})
}

func TestSecure(t *testing.T) {
	t.Run("default headers", func(t *testing.T) {
		router := gin.New()
		router.Use(Secure(DefaultSecurityConfig()))
		router.GET("/test", okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSEnabled = true
		router := gin.New()
		router.Use(Secure(cfg))
		router.GET("/test", okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("swagger ui keeps its scripts", func(t *testing.T) {
		router := gin.New()
		router.Use(Secure(DefaultSecurityConfig()))
		router.GET("/swagger/index.html", okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	})
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/test", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.String(http.StatusOK, "ok")
	})

	start := time.Now()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)
}

func TestTimeout_Disabled(t *testing.T) {
	var hasDeadline bool
	router := gin.New()
	router.Use(Timeout(0))
	router.GET("/test", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.False(t, hasDeadline)
}
