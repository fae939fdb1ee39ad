package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	statsdto "github.com/grndstats/backend/internal/application/stats/dto"
	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/interfaces/http/dto"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Resolve(ctx context.Context, input string) (*statsdto.ResolveResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsdto.ResolveResponse), args.Error(1)
}

func (m *MockStatsService) Holder(ctx context.Context, input string) (*statsdto.HolderResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsdto.HolderResponse), args.Error(1)
}

func (m *MockStatsService) Leaderboard(ctx context.Context, limit int) (*statsdto.LeaderboardResponse, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsdto.LeaderboardResponse), args.Error(1)
}

func (m *MockStatsService) Account(ctx context.Context, input string) (*statsdto.AccountResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsdto.AccountResponse), args.Error(1)
}

func setupStatsRouter(svc StatsService) *gin.Engine {
	middleware.SetupValidator()
	h := NewStatsHandler(svc)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/resolve", h.Resolve)
	router.GET("/holders/match", h.MatchHolder)
	router.GET("/leaderboard", h.Leaderboard)
	router.GET("/stats", h.AccountStats)
	router.GET("/stats/:input", h.AccountStats)
	return router
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStatsHandler_Resolve(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	svc.On("Resolve", mock.Anything, "alice.eth").
		Return(&statsdto.ResolveResponse{Input: "alice.eth", Kind: "ens", ID: "1", Found: true}, nil)
	svc.On("Resolve", mock.Anything, "nobody.eth").
		Return(&statsdto.ResolveResponse{Input: "nobody.eth", Kind: "ens"}, nil)

	w := get(router, "/resolve?input=alice.eth")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"input":"alice.eth","kind":"ens","id":"1","found":true}}`, w.Body.String())

	w = get(router, "/resolve?input=nobody.eth")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"input":"nobody.eth","kind":"ens","found":false}}`, w.Body.String())

	svc.AssertExpectations(t)
}

func TestStatsHandler_Resolve_MissingInput(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	w := get(router, "/resolve")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, info.Code)
	require.Len(t, info.Details, 1)
	assert.Equal(t, "input", info.Details[0].Field)
	svc.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestStatsHandler_MatchHolder(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	svc.On("Holder", mock.Anything, "ALICE").Return(&statsdto.HolderResponse{
		ID:          "1",
		DisplayName: "alice",
		TotalMetric: decimal.NewFromInt(100),
		Rank:        3,
		Holders:     3,
		MatchKind:   "name",
		Score:       1,
	}, nil)
	svc.On("Holder", mock.Anything, "zed").
		Return(nil, fmt.Errorf("%w: no holder matches %q", shared.ErrNotFound, "zed"))

	w := get(router, "/holders/match?input=ALICE")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data statsdto.HolderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.Data.ID)
	assert.Equal(t, 3, resp.Data.Rank)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Data.TotalMetric))

	w = get(router, "/holders/match?input=zed")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestStatsHandler_Leaderboard(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	board := &statsdto.LeaderboardResponse{
		Entries: []statsdto.LeaderboardEntry{{Rank: 1, ID: "2", DisplayName: "bob", TotalMetric: decimal.NewFromInt(300)}},
		Holders: 3,
	}
	svc.On("Leaderboard", mock.Anything, 10).Return(board, nil)
	svc.On("Leaderboard", mock.Anything, 1).Return(board, nil)

	assert.Equal(t, http.StatusOK, get(router, "/leaderboard").Code)
	assert.Equal(t, http.StatusOK, get(router, "/leaderboard?limit=1").Code)

	for _, bad := range []string{"0", "101", "abc"} {
		w := get(router, "/leaderboard?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}

	svc.AssertNumberOfCalls(t, "Leaderboard", 2)
}

func TestStatsHandler_AccountStats(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	account := &statsdto.AccountResponse{ID: "1", Name: "alice", Balance: decimal.NewFromInt(5)}
	svc.On("Account", mock.Anything, "alice").Return(account, nil)
	svc.On("Account", mock.Anything, "bob").Return(account, nil)

	t.Run("path input", func(t *testing.T) {
		w := get(router, "/stats/alice")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query wins over path", func(t *testing.T) {
		w := get(router, "/stats/alice?input=bob")
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertCalled(t, "Account", mock.Anything, "bob")
	})

	t.Run("query only", func(t *testing.T) {
		w := get(router, "/stats?input=alice")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing input", func(t *testing.T) {
		w := get(router, "/stats")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})

	t.Run("empty query does not fall back to path", func(t *testing.T) {
		w := get(router, "/stats/alice?input=")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatsHandler_AccountStats_Errors(t *testing.T) {
	svc := new(MockStatsService)
	router := setupStatsRouter(svc)

	svc.On("Account", mock.Anything, "ghost").
		Return(nil, fmt.Errorf("%w: no account matches %q", shared.ErrNotFound, "ghost"))
	svc.On("Account", mock.Anything, "alice").
		Return(nil, fmt.Errorf("token balance: %w", shared.NewUpstreamError("airstack", "balances", 503, nil)))

	w := get(router, "/stats/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(router, "/stats/alice")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeUpstream, info.Code)
	assert.NotEmpty(t, info.RequestID)
}
