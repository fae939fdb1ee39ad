// Package stats serves holder, leaderboard and account statistics on top of
// the identifier resolver, the holder matcher and the read-through cache.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grndstats/backend/internal/application/stats/dto"
	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/holder"
	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/domain/token"
	"github.com/grndstats/backend/internal/infrastructure/cache"
)

// MaxLeaderboardLimit bounds Leaderboard's limit
const MaxLeaderboardLimit = 100

// Settings holds the cache windows and token parameters
type Settings struct {
	// DatasetKey is the cache key of the holder snapshot, e.g. "dune_data_default".
	DatasetKey     string
	DatasetTimeout time.Duration
	APITimeout     time.Duration

	TokenAddress       string
	PassAddress        string
	DistributorAddress string
	ClaimsSince        time.Time
	ClaimReward        decimal.Decimal
	ClaimMinAmount     decimal.Decimal
	ClaimLimit         int
}

// Dependencies are the collaborators of Service
type Dependencies struct {
	Resolver *account.Resolver
	Matcher  *holder.Matcher
	Holders  holder.Source
	Profiles account.ProfileSource
	Ledger   token.Ledger
	Cache    *cache.Cache
	Logger   *zap.Logger
}

// Service answers the stats queries
type Service struct {
	resolver *account.Resolver
	matcher  *holder.Matcher
	holders  holder.Source
	profiles account.ProfileSource
	ledger   token.Ledger
	cache    *cache.Cache
	logger   *zap.Logger
	settings Settings

	datasets  *cache.ReadThrough[holder.Dataset]
	resolved  *cache.ReadThrough[dto.ResolveResponse]
	profileRT *cache.ReadThrough[account.Profile]
	balances  *cache.ReadThrough[decimal.Decimal]
	passes    *cache.ReadThrough[bool]
	transfers *cache.ReadThrough[[]token.Transfer]
}

// NewService creates a Service
func NewService(deps Dependencies, settings Settings) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = holder.NewMatcher()
	}
	return &Service{
		resolver: deps.Resolver,
		matcher:  matcher,
		holders:  deps.Holders,
		profiles: deps.Profiles,
		ledger:   deps.Ledger,
		cache:    deps.Cache,
		logger:   logger,
		settings: settings,

		// an empty snapshot is never persisted so the next request retries
		datasets: cache.NewReadThrough(deps.Cache, settings.DatasetTimeout,
			cache.WithCacheIf(func(d holder.Dataset) bool { return !d.IsEmpty() })),
		resolved: cache.NewReadThrough(deps.Cache, settings.APITimeout,
			cache.WithCacheIf(func(r dto.ResolveResponse) bool { return r.Found })),
		profileRT: cache.NewReadThrough[account.Profile](deps.Cache, settings.APITimeout),
		balances:  cache.NewReadThrough[decimal.Decimal](deps.Cache, settings.APITimeout),
		passes:    cache.NewReadThrough[bool](deps.Cache, settings.APITimeout),
		transfers: cache.NewReadThrough[[]token.Transfer](deps.Cache, settings.APITimeout),
	}
}

// Resolve maps free-form input to an account id. Address, ENS and name
// lookups are cached; numeric and empty input never reach the network.
func (s *Service) Resolve(ctx context.Context, input string) (*dto.ResolveResponse, error) {
	input = strings.TrimSpace(input)
	kind := account.Classify(input)

	if kind == account.InputEmpty || kind == account.InputNumeric {
		id, found, err := s.resolver.Resolve(ctx, input)
		if err != nil {
			return nil, err
		}
		return &dto.ResolveResponse{Input: input, Kind: string(kind), ID: id, Found: found}, nil
	}

	res, err := s.resolved.GetOrFetch(ctx, resolveKey(kind, input), func(ctx context.Context) (dto.ResolveResponse, error) {
		id, found, err := s.resolver.Resolve(ctx, input)
		if err != nil {
			return dto.ResolveResponse{}, err
		}
		return dto.ResolveResponse{Input: input, Kind: string(kind), ID: id, Found: found}, nil
	})
	if err != nil {
		return nil, err
	}
	res.Input = input
	return &res, nil
}

func resolveKey(kind account.InputKind, input string) string {
	norm := input
	switch kind {
	case account.InputAddress, account.InputENS:
		norm = strings.ToLower(input)
	case account.InputName:
		norm = account.StripHandle(input)
	}
	return cache.TextKey("resolve_"+string(kind), norm)
}

// Dataset returns the holder snapshot through the cache
func (s *Service) Dataset(ctx context.Context) (holder.Dataset, error) {
	return s.datasets.GetOrFetch(ctx, s.settings.DatasetKey, s.holders.LoadDataset)
}

// Holder matches input against the holder snapshot
func (s *Service) Holder(ctx context.Context, input string) (*dto.HolderResponse, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	res := s.matcher.Match(input, ds)
	if !res.Found() {
		return nil, fmt.Errorf("%w: no holder matches %q", shared.ErrNotFound, strings.TrimSpace(input))
	}

	board := holder.Rank(ds)
	standing, _ := board.RankOf(res.Record.ID)
	s.logger.Debug("Holder matched",
		zap.String("id", res.Record.ID),
		zap.String("kind", string(res.Kind)),
		zap.Float64("score", res.Score),
	)
	return dto.ToHolderResponse(res, standing, board.Len()), nil
}

// Leaderboard returns the top limit holders
func (s *Service) Leaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	if limit < 1 || limit > MaxLeaderboardLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", shared.ErrInvalidInput, MaxLeaderboardLimit)
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	board := holder.Rank(ds)
	return &dto.LeaderboardResponse{
		Entries: dto.ToLeaderboardEntries(board.Top(limit)),
		Holders: board.Len(),
	}, nil
}

// Account resolves input and assembles the account's token statistics.
// Balance and pass lookups must succeed; claim history and holder standing
// degrade to empty when their sources fail.
func (s *Service) Account(ctx context.Context, input string) (*dto.AccountResponse, error) {
	resolved, err := s.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if !resolved.Found {
		return nil, fmt.Errorf("%w: no account matches %q", shared.ErrNotFound, resolved.Input)
	}
	id := resolved.ID

	profile, err := s.profile(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.AccountResponse{
		ID:          profile.ID,
		Name:        profile.Name,
		DisplayName: profile.DisplayName,
		ImageURL:    profile.ImageURL,
		Addresses:   dto.ChecksumAddresses(profile.ConnectedAddresses),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.balance(gctx, profile.ConnectedAddresses)
		if err != nil {
			return fmt.Errorf("token balance: %w", err)
		}
		resp.Balance = balance
		return nil
	})
	g.Go(func() error {
		holds, err := s.passHolder(gctx, id)
		if err != nil {
			return fmt.Errorf("pass ownership: %w", err)
		}
		resp.PassHolder = holds
		return nil
	})
	g.Go(func() error {
		resp.Claims = s.claims(gctx, id, profile.ConnectedAddresses)
		return nil
	})
	g.Go(func() error {
		resp.Standing = s.standing(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) profile(ctx context.Context, id string) (*account.Profile, error) {
	p, err := s.profileRT.GetOrFetch(ctx, cache.TextKey("profile", id), func(ctx context.Context) (account.Profile, error) {
		p, err := s.profiles.GetAccountDetails(ctx, id)
		if err != nil {
			return account.Profile{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) balance(ctx context.Context, addresses []string) (decimal.Decimal, error) {
	if len(addresses) == 0 {
		return decimal.Zero, nil
	}
	key := cache.SetKey(cache.Key("balance", s.settings.TokenAddress), addresses)
	return s.balances.GetOrFetch(ctx, key, func(ctx context.Context) (decimal.Decimal, error) {
		return s.ledger.Balance(ctx, addresses, s.settings.TokenAddress)
	})
}

func (s *Service) passHolder(ctx context.Context, id string) (bool, error) {
	key := cache.Key("pass", s.settings.PassAddress, id)
	return s.passes.GetOrFetch(ctx, key, func(ctx context.Context) (bool, error) {
		return s.ledger.HoldsToken(ctx, id, s.settings.PassAddress)
	})
}

func (s *Service) claims(ctx context.Context, id string, addresses []string) dto.ClaimResponse {
	key := cache.Key("claims", s.settings.DistributorAddress, s.settings.TokenAddress)
	transfers, err := s.transfers.GetOrFetch(ctx, key, func(ctx context.Context) ([]token.Transfer, error) {
		return s.ledger.Transfers(ctx, token.TransferQuery{
			Token:     s.settings.TokenAddress,
			From:      s.settings.DistributorAddress,
			Since:     s.settings.ClaimsSince,
			MinAmount: s.settings.ClaimMinAmount,
			Limit:     s.settings.ClaimLimit,
		})
	})
	if err != nil {
		s.logger.Warn("Claim history unavailable", zap.String("id", id), zap.Error(err))
		return dto.ClaimResponse{Amount: decimal.Zero}
	}

	summary := token.SummarizeClaims(transfers, addresses, s.settings.ClaimReward)
	resp := dto.ClaimResponse{Count: summary.Count, Amount: summary.Amount}
	if !summary.Last.IsZero() {
		last := summary.Last
		resp.LastClaimAt = &last
	}
	return resp
}

func (s *Service) standing(ctx context.Context, id string) *dto.StandingResponse {
	ds, err := s.Dataset(ctx)
	if err != nil {
		s.logger.Warn("Holder snapshot unavailable", zap.String("id", id), zap.Error(err))
		return nil
	}
	board := holder.Rank(ds)
	st, ok := board.RankOf(id)
	if !ok {
		return nil
	}
	return &dto.StandingResponse{Rank: st.Rank, Holders: board.Len(), TotalMetric: st.Record.TotalMetric}
}

// DatasetKey is the cache key of the holder snapshot
func (s *Service) DatasetKey() string {
	return s.settings.DatasetKey
}

// InvalidateHolders drops the cached holder snapshot
func (s *Service) InvalidateHolders(ctx context.Context) error {
	return s.datasets.Invalidate(ctx, s.settings.DatasetKey)
}

// WarmHolders refetches the holder snapshot and overwrites the cached one.
// A failed fetch keeps the previous snapshot.
func (s *Service) WarmHolders(ctx context.Context) (int, error) {
	ds, err := s.datasets.Refresh(ctx, s.settings.DatasetKey, s.holders.LoadDataset)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Holder snapshot warmed", zap.Int("holders", ds.Len()))
	return ds.Len(), nil
}

// Invalidate drops one cache entry by key
func (s *Service) Invalidate(ctx context.Context, key string) error {
	if key == "" || cache.SanitizeKey(key) != key {
		return fmt.Errorf("%w: invalid cache key %q", shared.ErrInvalidInput, key)
	}
	return s.cache.Invalidate(ctx, key)
}
