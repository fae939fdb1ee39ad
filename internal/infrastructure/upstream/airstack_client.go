package upstream

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/domain/token"
	"github.com/grndstats/backend/internal/infrastructure/config"
)

// AirstackDefaultURL is the GraphQL endpoint
const AirstackDefaultURL = "https://api.airstack.xyz/gql"

const searchLimit = 10

// AirstackClient queries the Airstack GraphQL API for Farcaster identities
// and token data.
type AirstackClient struct {
	client     *Client
	url        string
	blockchain string
}

// NewAirstackClient validates cfg and creates a client. chain is the
// Airstack TokenBlockchain name used for token queries, e.g. "base".
func NewAirstackClient(cfg config.AirstackConfig, chain string, opts ...ClientOption) (*AirstackClient, error) {
	if cfg.APIKey == "" {
		return nil, shared.ConfigError("airstack", "airstack.api_key")
	}
	url := cfg.URL
	if url == "" {
		url = AirstackDefaultURL
	}
	if chain == "" {
		chain = "base"
	}

	base := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithHeader("Authorization", cfg.APIKey),
	}
	return &AirstackClient{
		client:     NewClient("airstack", append(base, opts...)...),
		url:        url,
		blockchain: chain,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// query runs a GraphQL operation and returns the "data" object. GraphQL
// errors are reported as upstream failures.
func (c *AirstackClient) query(ctx context.Context, op, q string, vars map[string]any) (gjson.Result, error) {
	body, err := c.client.PostJSON(ctx, op, c.url, graphQLRequest{Query: q, Variables: vars})
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, shared.NewUpstreamError(c.client.Service(), op, 0, errors.New("invalid JSON response"))
	}

	res := gjson.ParseBytes(body)
	if errs := res.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		msgs := make([]string, 0, len(errs.Array()))
		for _, e := range errs.Array() {
			msgs = append(msgs, e.Get("message").String())
		}
		return gjson.Result{}, shared.NewUpstreamError(c.client.Service(), op, 0,
			fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
	}
	return res.Get("data"), nil
}

// SearchByName implements account.IdentityGraph. Names are matched as a
// case-sensitive prefix; results keep the provider's order.
func (c *AirstackClient) SearchByName(ctx context.Context, name string) ([]account.SearchResult, error) {
	data, err := c.query(ctx, "search_profiles", searchProfilesQuery, map[string]any{
		"pattern": "^" + regexp.QuoteMeta(name),
		"limit":   searchLimit,
	})
	if err != nil {
		return nil, err
	}

	var out []account.SearchResult
	for _, s := range data.Get("Socials.Social").Array() {
		id := s.Get("userId").String()
		if id == "" {
			continue
		}
		out = append(out, account.SearchResult{ID: id, Name: s.Get("profileName").String()})
	}
	return out, nil
}

// ReverseLookupByAddress implements account.IdentityGraph
func (c *AirstackClient) ReverseLookupByAddress(ctx context.Context, address string) (string, bool, error) {
	data, err := c.query(ctx, "profile_by_address", profileByAddressQuery, map[string]any{
		"address": address,
	})
	if err != nil {
		return "", false, err
	}
	id := data.Get("Socials.Social.0.userId").String()
	return id, id != "", nil
}

// ResolveENS implements account.ENSResolver
func (c *AirstackClient) ResolveENS(ctx context.Context, name string) (string, bool, error) {
	data, err := c.query(ctx, "ens_domain", ensDomainQuery, map[string]any{
		"name": strings.ToLower(name),
	})
	if err != nil {
		return "", false, err
	}
	addr := account.NormalizeAddress(data.Get("Domains.Domain.0.resolvedAddress").String())
	if !account.IsAddress(addr) {
		return "", false, nil
	}
	return addr, true, nil
}

// GetAccountDetails implements account.ProfileSource
func (c *AirstackClient) GetAccountDetails(ctx context.Context, id string) (*account.Profile, error) {
	data, err := c.query(ctx, "account_details", accountDetailsQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	social := data.Get("Socials.Social.0")
	if !social.Exists() || social.Get("userId").String() == "" {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, id)
	}

	var addrs []string
	for _, a := range social.Get("userAssociatedAddresses").Array() {
		addrs = append(addrs, a.String())
	}
	for _, a := range social.Get("connectedAddresses.#.address").Array() {
		addrs = append(addrs, a.String())
	}

	return &account.Profile{
		ID:                 social.Get("userId").String(),
		Name:               social.Get("profileName").String(),
		DisplayName:        social.Get("profileDisplayName").String(),
		ImageURL:           profileImage(social.Get("profileImage")),
		ConnectedAddresses: account.NormalizeAddresses(addrs),
	}, nil
}

// profileImage accepts either a URL string or the sized-variant object
func profileImage(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	for _, size := range []string{"extraSmall", "small", "medium", "original"} {
		if s := v.Get(size).String(); s != "" {
			return s
		}
	}
	return ""
}

// Balance implements token.Ledger
func (c *AirstackClient) Balance(ctx context.Context, addresses []string, tokenAddress string) (decimal.Decimal, error) {
	owners := account.NormalizeAddresses(addresses)
	if len(owners) == 0 {
		return decimal.Zero, nil
	}

	data, err := c.query(ctx, "token_balances", tokenBalancesQuery, map[string]any{
		"owners":     owners,
		"token":      account.NormalizeAddress(tokenAddress),
		"blockchain": c.blockchain,
	})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, b := range data.Get("TokenBalances.TokenBalance").Array() {
		amount, err := parseAmount(b.Get("formattedAmount"))
		if err != nil {
			return decimal.Zero, shared.NewUpstreamError(c.client.Service(), "token_balances", 0, err)
		}
		total = total.Add(amount)
	}
	return total, nil
}

// HoldsToken implements token.Ledger using the fc_fid identity form
func (c *AirstackClient) HoldsToken(ctx context.Context, accountID, tokenAddress string) (bool, error) {
	data, err := c.query(ctx, "token_ownership", tokenOwnershipQuery, map[string]any{
		"owner":      "fc_fid:" + accountID,
		"token":      account.NormalizeAddress(tokenAddress),
		"blockchain": c.blockchain,
	})
	if err != nil {
		return false, err
	}
	for _, b := range data.Get("TokenBalances.TokenBalance").Array() {
		amount, err := parseAmount(b.Get("amount"))
		if err == nil && amount.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

// Transfers implements token.Ledger
func (c *AirstackClient) Transfers(ctx context.Context, q token.TransferQuery) ([]token.Transfer, error) {
	data, err := c.query(ctx, "token_transfers", tokenTransfersQuery, map[string]any{
		"from":       account.NormalizeAddress(q.From),
		"token":      account.NormalizeAddress(q.Token),
		"minAmount":  q.MinAmount.InexactFloat64(),
		"since":      q.Since.UTC().Format(time.RFC3339),
		"limit":      q.Limit,
		"blockchain": c.blockchain,
	})
	if err != nil {
		return nil, err
	}

	var out []token.Transfer
	for _, t := range data.Get("TokenTransfers.TokenTransfer").Array() {
		to := account.NormalizeAddress(t.Get("to.identity").String())
		if !account.IsAddress(to) {
			continue
		}
		amount, _ := parseAmount(t.Get("formattedAmount"))
		ts, _ := time.Parse(time.RFC3339, t.Get("blockTimestamp").String())
		out = append(out, token.Transfer{To: to, Amount: amount, Timestamp: ts})
	}
	return out, nil
}

// parseAmount reads a JSON number or numeric string without going through
// float64.
func parseAmount(v gjson.Result) (decimal.Decimal, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return decimal.Zero, nil
	}
	raw := v.Raw
	if v.Type == gjson.String {
		raw = v.String()
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

var (
	_ account.IdentityGraph = (*AirstackClient)(nil)
	_ account.ENSResolver   = (*AirstackClient)(nil)
	_ account.ProfileSource = (*AirstackClient)(nil)
	_ token.Ledger          = (*AirstackClient)(nil)
)
