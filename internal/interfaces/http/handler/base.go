package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/logger"
	"github.com/grndstats/backend/internal/interfaces/http/dto"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps service errors onto the response envelope. Client
// errors carry the error text; upstream and internal failures are logged
// and answered with a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	log := logger.GetGinLogger(c)

	var upstreamErr *shared.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("Request timed out", zap.Error(err))
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "The request timed out")
		return
	case errors.As(err, &upstreamErr):
		log.Error("Upstream request failed",
			zap.String("service", upstreamErr.Service),
			zap.String("op", upstreamErr.Op),
			zap.Int("status", upstreamErr.Status),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, upstreamErr.Service+" request failed")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("code", code), zap.Error(err))
			message = domainErr.Message
		}
		h.Error(c, status, code, message)
		return
	}

	log.Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
