package handler

import "github.com/grndstats/backend/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse represents a simple success API response for OpenAPI documentation
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// WarmData reports the size of a freshly loaded holder snapshot
// @Description Holder snapshot warm result
type WarmData struct {
	Holders int `json:"holders" example:"1523"`
}

// InvalidatedData names the dropped cache entry
// @Description Cache invalidation result
type InvalidatedData struct {
	Key string `json:"key" example:"dune_data_default"`
}

// WarmerStatusData reports the scheduled warm-up job
// @Description Dataset warmer status
type WarmerStatusData struct {
	Enabled   bool   `json:"enabled"`
	Schedule  string `json:"schedule,omitempty" example:"@every 30m"`
	LastRun   string `json:"last_run,omitempty" example:"2026-01-23T12:00:00Z"`
	Runs      int    `json:"runs"`
	LastError string `json:"last_error,omitempty"`
}
