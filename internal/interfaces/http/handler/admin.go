package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/infrastructure/logger"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

// CacheAdmin is the maintenance side of the stats service
type CacheAdmin interface {
	InvalidateHolders(ctx context.Context) error
	WarmHolders(ctx context.Context) (int, error)
	Invalidate(ctx context.Context, key string) error
}

// WarmerStatus reports the scheduled dataset warm-up
type WarmerStatus interface {
	Status() (lastRun time.Time, runs int, lastErr error)
}

// AdminHandler serves cache maintenance for authenticated admins
type AdminHandler struct {
	BaseHandler
	cache      CacheAdmin
	datasetKey string
	warmer     WarmerStatus
	schedule   string
}

// NewAdminHandler creates a new AdminHandler. warmer may be nil when the
// scheduler is disabled.
func NewAdminHandler(cache CacheAdmin, datasetKey string, warmer WarmerStatus, schedule string) *AdminHandler {
	return &AdminHandler{
		cache:      cache,
		datasetKey: datasetKey,
		warmer:     warmer,
		schedule:   schedule,
	}
}

// InvalidateHolders godoc
// @ID           invalidateHolderSnapshot
// @Summary      Invalidate the holder snapshot
// @Description  Drops the cached holder snapshot; the next request refetches it
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[InvalidatedData]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /admin/cache/holders/invalidate [post]
func (h *AdminHandler) InvalidateHolders(c *gin.Context) {
	if err := h.cache.InvalidateHolders(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "Holder snapshot invalidated", zap.String("key", h.datasetKey))
	h.Success(c, InvalidatedData{Key: h.datasetKey})
}

// WarmHolders godoc
// @ID           warmHolderSnapshot
// @Summary      Refetch the holder snapshot
// @Description  Invalidates and reloads the holder snapshot from the warehouse
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      202 {object} APIResponse[WarmData]
// @Failure      401 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/cache/holders/warm [post]
func (h *AdminHandler) WarmHolders(c *gin.Context) {
	n, err := h.cache.WarmHolders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "Holder snapshot warmed", zap.Int("holders", n))
	h.Accepted(c, WarmData{Holders: n})
}

// InvalidateKey godoc
// @ID           invalidateCacheKey
// @Summary      Invalidate one cache entry
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        key path string true "Cache key"
// @Success      200 {object} APIResponse[InvalidatedData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /admin/cache/{key} [delete]
func (h *AdminHandler) InvalidateKey(c *gin.Context) {
	key := c.Param("key")
	if err := h.cache.Invalidate(c.Request.Context(), key); err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "Cache entry invalidated", zap.String("key", key))
	h.Success(c, InvalidatedData{Key: key})
}

// SchedulerStatus godoc
// @ID           getSchedulerStatus
// @Summary      Dataset warmer status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[WarmerStatusData]
// @Router       /admin/scheduler [get]
func (h *AdminHandler) SchedulerStatus(c *gin.Context) {
	if h.warmer == nil {
		h.Success(c, WarmerStatusData{Enabled: false})
		return
	}
	lastRun, runs, lastErr := h.warmer.Status()
	data := WarmerStatusData{Enabled: true, Schedule: h.schedule, Runs: runs}
	if !lastRun.IsZero() {
		data.LastRun = lastRun.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		data.LastError = lastErr.Error()
	}
	h.Success(c, data)
}

func (h *AdminHandler) audit(c *gin.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("admin_subject", middleware.GetAdminSubject(c)))
	logger.GetGinLogger(c).Info(msg, fields...)
}
