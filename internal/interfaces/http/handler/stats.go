package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	statsdto "github.com/grndstats/backend/internal/application/stats/dto"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

// StatsService is the query side of the stats application service
type StatsService interface {
	Resolve(ctx context.Context, input string) (*statsdto.ResolveResponse, error)
	Holder(ctx context.Context, input string) (*statsdto.HolderResponse, error)
	Leaderboard(ctx context.Context, limit int) (*statsdto.LeaderboardResponse, error)
	Account(ctx context.Context, input string) (*statsdto.AccountResponse, error)
}

// StatsHandler serves identifier resolution, holder lookup and account stats
type StatsHandler struct {
	BaseHandler
	service StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Resolve godoc
// @ID           resolveAccount
// @Summary      Resolve an identifier
// @Description  Maps a numeric id, address, ENS name or handle to an account id. Unresolved input answers found=false.
// @Tags         stats
// @Produce      json
// @Param        input query string true "Identifier to resolve"
// @Success      200 {object} APIResponse[statsdto.ResolveResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /resolve [get]
func (h *StatsHandler) Resolve(c *gin.Context) {
	var req statsdto.ResolveRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), req.Input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// MatchHolder godoc
// @ID           matchHolder
// @Summary      Match a holder
// @Description  Finds a holder in the cached snapshot by id, address or fuzzy name
// @Tags         stats
// @Produce      json
// @Param        input query string true "Id, address or name"
// @Success      200 {object} APIResponse[statsdto.HolderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /holders/match [get]
func (h *StatsHandler) MatchHolder(c *gin.Context) {
	var req statsdto.MatchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.service.Holder(c.Request.Context(), req.Input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Leaderboard godoc
// @ID           getLeaderboard
// @Summary      Holder leaderboard
// @Description  Returns the top holders ranked by total metric
// @Tags         stats
// @Produce      json
// @Param        limit query int false "Number of entries (1-100)" default(10)
// @Success      200 {object} APIResponse[statsdto.LeaderboardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /leaderboard [get]
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	var req statsdto.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.service.Leaderboard(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// statsInput carries the account input from the query or the path
type statsInput struct {
	Input string `form:"input" binding:"required,account_input"`
}

// AccountStats godoc
// @ID           getAccountStats
// @Summary      Account statistics
// @Description  Resolves the input and returns balance, pass ownership, claims and holder standing. The input query parameter takes precedence over the path.
// @Tags         stats
// @Produce      json
// @Param        input path  string false "Identifier"
// @Param        input query string false "Identifier"
// @Success      200 {object} APIResponse[statsdto.AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /stats/{input} [get]
func (h *StatsHandler) AccountStats(c *gin.Context) {
	req := statsInput{Input: c.Param("input")}
	if q, ok := c.GetQuery("input"); ok {
		req.Input = q
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.service.Account(c.Request.Context(), req.Input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
