// Package token models the tracked ERC-20 token: balances, pass ownership
// and reward claims paid out by the distributor.
package token

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grndstats/backend/internal/domain/account"
)

// Transfer is a single token transfer to a recipient address
type Transfer struct {
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransferQuery selects distributor payouts
type TransferQuery struct {
	Token     string
	From      string
	Since     time.Time
	MinAmount decimal.Decimal
	Limit     int
}

// Ledger reads on-chain token state. Addresses are lowercase.
type Ledger interface {
	// Balance sums the token balance held across addresses.
	Balance(ctx context.Context, addresses []string, token string) (decimal.Decimal, error)
	// HoldsToken reports whether the account owns at least one unit of token.
	HoldsToken(ctx context.Context, accountID, token string) (bool, error)
	// Transfers lists transfers matching q in ascending time order.
	Transfers(ctx context.Context, q TransferQuery) ([]Transfer, error)
}

// ClaimSummary counts the distributor payouts received by an account
type ClaimSummary struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	// Last is the most recent claim time; zero when there are none.
	Last time.Time `json:"last_claim_at,omitempty"`
}

// SummarizeClaims counts transfers whose recipient is one of addresses and
// values each at reward.
func SummarizeClaims(transfers []Transfer, addresses []string, reward decimal.Decimal) ClaimSummary {
	owned := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		owned[account.NormalizeAddress(a)] = struct{}{}
	}

	var s ClaimSummary
	for _, t := range transfers {
		if _, ok := owned[account.NormalizeAddress(t.To)]; !ok {
			continue
		}
		s.Count++
		if t.Timestamp.After(s.Last) {
			s.Last = t.Timestamp
		}
	}
	s.Amount = reward.Mul(decimal.NewFromInt(int64(s.Count)))
	return s
}
