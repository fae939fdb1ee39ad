package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/holder"
)

// ResolveRequest is the query for GET /resolve
type ResolveRequest struct {
	Input string `form:"input" binding:"required,account_input"`
}

// ResolveResponse is the canonical account id for an input
// @name ResolveResponse
type ResolveResponse struct {
	Input string `json:"input"`
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Found bool   `json:"found"`
}

// MatchRequest is the query for GET /holders/match
type MatchRequest struct {
	Input string `form:"input" binding:"required,account_input"`
}

// LeaderboardRequest is the query for GET /leaderboard
type LeaderboardRequest struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

// HolderResponse is a matched holder with its standing
// @name HolderResponse
type HolderResponse struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Addresses   []string        `json:"addresses"`
	TotalMetric decimal.Decimal `json:"total_metric"`
	Rank        int             `json:"rank"`
	Holders     int             `json:"holders"`
	MatchKind   string          `json:"match_kind"`
	Score       float64         `json:"score"`
}

// LeaderboardEntry is one ranked holder
// @name LeaderboardEntry
type LeaderboardEntry struct {
	Rank        int             `json:"rank"`
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	TotalMetric decimal.Decimal `json:"total_metric"`
}

// LeaderboardResponse is the top of the holder ranking
// @name LeaderboardResponse
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Holders int                `json:"holders"`
}

// ClaimResponse summarizes distributor payouts to an account
type ClaimResponse struct {
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
	LastClaimAt *time.Time      `json:"last_claim_at,omitempty"`
}

// StandingResponse is an account's place in the holder snapshot
type StandingResponse struct {
	Rank        int             `json:"rank"`
	Holders     int             `json:"holders"`
	TotalMetric decimal.Decimal `json:"total_metric"`
}

// AccountResponse is the stats view for one account
// @name AccountResponse
type AccountResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Addresses   []string          `json:"addresses"`
	Balance     decimal.Decimal   `json:"balance"`
	PassHolder  bool              `json:"pass_holder"`
	Claims      ClaimResponse     `json:"claims"`
	Standing    *StandingResponse `json:"standing,omitempty"`
}

// ToHolderResponse converts a match and its standing
func ToHolderResponse(res holder.Result, standing holder.Standing, holders int) *HolderResponse {
	return &HolderResponse{
		ID:          res.Record.ID,
		DisplayName: res.Record.DisplayName,
		Addresses:   ChecksumAddresses(res.Record.Addresses),
		TotalMetric: res.Record.TotalMetric,
		Rank:        standing.Rank,
		Holders:     holders,
		MatchKind:   string(res.Kind),
		Score:       res.Score,
	}
}

// ToLeaderboardEntries converts standings
func ToLeaderboardEntries(standings []holder.Standing) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(standings))
	for _, s := range standings {
		out = append(out, LeaderboardEntry{
			Rank:        s.Rank,
			ID:          s.Record.ID,
			DisplayName: s.Record.DisplayName,
			TotalMetric: s.Record.TotalMetric,
		})
	}
	return out
}

// ChecksumAddresses renders lowercase addresses in EIP-55 form
func ChecksumAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, account.ChecksumAddress(a))
	}
	return out
}
