package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grndstats/backend/internal/infrastructure/config"
)

// SwaggerProtection guards the documentation routes. A disabled endpoint
// answers 404; otherwise the client IP must match AllowedIPs (single
// addresses or CIDR prefixes, empty allows all) and, with RequireAuth,
// the request must pass authMiddleware.
func SwaggerProtection(cfg config.SwaggerConfig, authMiddleware gin.HandlerFunc) gin.HandlerFunc {
	allowed := parseAllowList(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, http.StatusNotFound, "ERR_NOT_FOUND", "API documentation is not available")
			return
		}

		if len(cfg.AllowedIPs) > 0 && !isIPAllowed(clientAddr(c), allowed) {
			abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Access to API documentation is restricted")
			return
		}

		if cfg.RequireAuth && authMiddleware != nil {
			authMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowList turns addresses and CIDR strings into prefixes. Invalid
// entries are skipped.
func parseAllowList(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
		}
	}
	return prefixes
}

func clientAddr(c *gin.Context) netip.Addr {
	addr, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func isIPAllowed(addr netip.Addr, allowed []netip.Prefix) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
