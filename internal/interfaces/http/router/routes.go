package router

import (
	"github.com/gin-gonic/gin"

	"github.com/grndstats/backend/internal/interfaces/http/handler"
)

// SystemRoutes mounts ping and info under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping).
		GET("/info", h.GetSystemInfo)
}

// StatsRoutes mounts the public read endpoints
func StatsRoutes(h *handler.StatsHandler) *DomainGroup {
	return NewDomainGroup("stats", "").
		GET("/resolve", h.Resolve).
		GET("/holders/match", h.MatchHolder).
		GET("/leaderboard", h.Leaderboard).
		GET("/stats", h.AccountStats).
		GET("/stats/:input", h.AccountStats)
}

// AdminRoutes mounts cache maintenance behind auth
func AdminRoutes(h *handler.AdminHandler, auth gin.HandlerFunc) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin").Use(auth)
	admin.GET("/scheduler", h.SchedulerStatus)
	admin.Group("cache", "/cache").
		POST("/holders/invalidate", h.InvalidateHolders).
		POST("/holders/warm", h.WarmHolders).
		DELETE("/:key", h.InvalidateKey)
	return admin
}
