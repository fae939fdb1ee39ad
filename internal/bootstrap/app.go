// Package bootstrap assembles the stats service graph from configuration.
// Both the HTTP server and grndctl build their dependencies here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/application/stats"
	"github.com/grndstats/backend/internal/domain/account"
	"github.com/grndstats/backend/internal/domain/holder"
	"github.com/grndstats/backend/internal/infrastructure/auth"
	"github.com/grndstats/backend/internal/infrastructure/cache"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/storage"
	"github.com/grndstats/backend/internal/infrastructure/upstream"
	"github.com/grndstats/backend/internal/interfaces/http/handler"
)

// healthProbeKey is read by the cache health check; it is never written
const healthProbeKey = "health_probe"

// App holds the assembled dependencies
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  cache.Store
	Cache  *cache.Cache
	Stats  *stats.Service
	JWT    *auth.JWTService

	stores *storage.StoreFactory
}

// Option configures New
type Option func(*options)

type options struct {
	meter         metric.Meter
	clientOptions []upstream.ClientOption
	store         cache.Store
}

// WithMeter records cache and upstream metrics on meter
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClientOptions appends options to every upstream client
func WithClientOptions(opts ...upstream.ClientOption) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// WithStore uses store instead of the backend selected by cache.backend
func WithStore(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New builds the cache store, the upstream clients and the stats service.
// Missing provider credentials fail here so a misconfigured deployment never
// starts serving.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{meter: noop.NewMeterProvider().Meter("bootstrap")}
	for _, opt := range opts {
		opt(&o)
	}

	settings, err := NewSettings(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		JWT:    auth.NewJWTService(cfg.Admin),
	}

	store := o.store
	if store == nil {
		app.stores = storage.NewStoreFactory(cfg, logger.Named("storage"))
		store, err = app.stores.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
	}
	app.Store = store
	app.Cache = cache.New(store,
		cache.WithLogger(logger.Named("cache")),
		cache.WithMeter(o.meter),
	)

	clientOpts := append([]upstream.ClientOption{
		upstream.WithLogger(logger.Named("upstream")),
		upstream.WithMeter(o.meter),
	}, o.clientOptions...)

	airstack, err := upstream.NewAirstackClient(cfg.Airstack, cfg.Token.Chain, clientOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	dune, err := upstream.NewDuneClient(cfg.Dune, clientOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var profiles account.ProfileSource = airstack
	if cfg.Identity.ProfileProvider == "pinata" {
		pinata, err := upstream.NewPinataClient(cfg.Pinata, clientOpts...)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		profiles = pinata
	}

	var resolverOpts []account.ResolverOption
	if cfg.Identity.ENSEnabled {
		resolverOpts = append(resolverOpts, account.WithENSResolver(airstack))
	}

	app.Stats = stats.NewService(stats.Dependencies{
		Resolver: account.NewResolver(airstack, resolverOpts...),
		Matcher:  holder.NewMatcher(holder.WithFuzzyThreshold(cfg.Matcher.FuzzyThreshold)),
		Holders:  dune,
		Profiles: profiles,
		Ledger:   airstack,
		Cache:    app.Cache,
		Logger:   logger.Named("stats"),
	}, settings)

	logger.Info("Stats service ready",
		zap.String("cache_backend", store.Name()),
		zap.String("dataset_key", settings.DatasetKey),
		zap.String("profile_provider", cfg.Identity.ProfileProvider),
		zap.Bool("ens", cfg.Identity.ENSEnabled),
	)
	return app, nil
}

// NewSettings derives the stats service settings from cfg
func NewSettings(cfg *config.Config) (stats.Settings, error) {
	reward, err := decimal.NewFromString(cfg.Token.ClaimReward)
	if err != nil {
		return stats.Settings{}, fmt.Errorf("token.claim_reward: %w", err)
	}
	minAmount, err := decimal.NewFromString(cfg.Token.ClaimMinAmount)
	if err != nil {
		return stats.Settings{}, fmt.Errorf("token.claim_min_amount: %w", err)
	}
	return stats.Settings{
		DatasetKey:         DatasetKey(cfg.Dune),
		DatasetTimeout:     cfg.Cache.DatasetTimeout(),
		APITimeout:         cfg.Cache.APITimeout(),
		TokenAddress:       cfg.Token.TokenAddress,
		PassAddress:        cfg.Token.PassAddress,
		DistributorAddress: cfg.Token.DistributorAddress,
		ClaimsSince:        cfg.Token.ClaimsSince,
		ClaimReward:        reward,
		ClaimMinAmount:     minAmount,
		ClaimLimit:         cfg.Token.ClaimLimit,
	}, nil
}

// DatasetKey is the cache key of the holder snapshot for a deployment
func DatasetKey(cfg config.DuneConfig) string {
	return cache.Key("dune", "data", cfg.Deployment)
}

// HealthChecks returns the dependency probes served by /health
func (a *App) HealthChecks() map[string]handler.HealthCheck {
	return map[string]handler.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := a.Store.Get(ctx, healthProbeKey)
			if err == nil || errors.Is(err, cache.ErrCacheMiss) {
				return nil
			}
			return err
		},
	}
}

// Close releases the connections opened for the cache store
func (a *App) Close() error {
	if a.stores == nil {
		return nil
	}
	return a.stores.Close()
}
