package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/grndstats/backend/internal/infrastructure/auth"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/interfaces/http/dto"
)

const testAdminSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService(secret string) *auth.JWTService {
	return auth.NewJWTService(config.AdminConfig{
		JWTSecret:  secret,
		Issuer:     "grnd-stats",
		Expiration: time.Hour,
	})
}

func newAdminRouter(svc *auth.JWTService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.POST("/admin", AdminAuth(svc, log), func(c *gin.Context) {
		claims := GetAdminClaims(c)
		c.JSON(http.StatusOK, gin.H{"subject": GetAdminSubject(c), "has_claims": claims != nil})
	})
	return router
}

func serveAdmin(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error.RequestID)
	return resp.Error.Code
}

func signClaims(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	require.NoError(t, err)
	return signed
}

func TestAdminAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService(testAdminSecret)
	token, err := svc.Issue("ops@grnd", 0)
	require.NoError(t, err)

	w := serveAdmin(newAdminRouter(svc, nil), BearerPrefix+token.Token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subject":"ops@grnd","has_claims":true}`, w.Body.String())
}

func TestAdminAuth_HeaderErrors(t *testing.T) {
	router := newAdminRouter(newTestJWTService(testAdminSecret), nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer   "},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveAdmin(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
		})
	}
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token := signClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "grnd-stats",
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{"grnd-stats"},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
		Role: auth.RoleAdmin,
	})

	w := serveAdmin(newAdminRouter(newTestJWTService(testAdminSecret), nil), BearerPrefix+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
}

func TestAdminAuth_MissingRole(t *testing.T) {
	now := time.Now()
	token := signClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "grnd-stats",
			Subject:   "viewer",
			Audience:  jwt.ClaimStrings{"grnd-stats"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Role: "viewer",
	})

	w := serveAdmin(newAdminRouter(newTestJWTService(testAdminSecret), nil), BearerPrefix+token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}

func TestAdminAuth_NotConfigured(t *testing.T) {
	w := serveAdmin(newAdminRouter(newTestJWTService(""), nil), "Bearer anything")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeConfiguration, errorCode(t, w))

	w = serveAdmin(newAdminRouter(nil, nil), "Bearer anything")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	router := newAdminRouter(newTestJWTService(testAdminSecret), zap.New(core))

	serveAdmin(router, "")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Admin authentication failed", entry.Message)
	assert.Equal(t, "/admin", entry.ContextMap()["path"])
}

func TestGetAdminClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetAdminClaims(c))
	assert.Empty(t, GetAdminSubject(c))
}
