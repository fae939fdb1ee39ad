package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/infrastructure/auth"
	"github.com/grndstats/backend/internal/infrastructure/logger"
)

// Admin context keys
const (
	AdminClaimsKey  = "admin_claims"
	AdminSubjectKey = "admin_subject"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// AdminAuth requires a valid admin bearer token. Requests are rejected
// with 503 while no signing secret is configured.
func AdminAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if jwtService == nil || !jwtService.Enabled() {
			abortWithError(c, http.StatusServiceUnavailable, "ERR_CONFIGURATION", "Admin endpoints are not configured")
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			handleAuthError(c, log, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			handleAuthError(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			handleAuthError(c, log, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := jwtService.Validate(token)
		if err != nil {
			handleAuthError(c, log, err, "Token validation failed")
			return
		}

		c.Set(AdminClaimsKey, claims)
		c.Set(AdminSubjectKey, claims.Subject)

		ctx := c.Request.Context()
		reqLogger := logger.FromContext(ctx).With(zap.String("admin_subject", claims.Subject))
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))

		log.Debug("Admin authentication successful",
			zap.String("subject", claims.Subject),
			zap.String("jti", claims.ID),
		)

		c.Next()
	}
}

func handleAuthError(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("Admin authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	switch {
	case errors.Is(err, auth.ErrNotAdmin):
		abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Admin role required")
	case errors.Is(err, auth.ErrExpiredToken):
		abortWithError(c, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrTokenNotYetValid):
		abortWithError(c, http.StatusUnauthorized, "ERR_TOKEN_INVALID", "Token is not yet valid")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		abortWithError(c, http.StatusUnauthorized, "ERR_TOKEN_INVALID", message)
	default:
		abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Authentication required")
	}
}

// GetAdminClaims retrieves the validated admin claims from gin.Context
func GetAdminClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(AdminClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetAdminSubject returns the authenticated admin subject, or ""
func GetAdminSubject(c *gin.Context) string {
	return c.GetString(AdminSubjectKey)
}
