package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/infrastructure/cache"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/migration"
	"github.com/grndstats/backend/internal/infrastructure/persistence"
)

// StoreFactory builds the cache store selected by cache.backend and owns the
// connections it opens.
type StoreFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	closers []func() error
}

// NewStoreFactory creates a factory for cfg
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreFactory{cfg: cfg, logger: logger}
}

// Create returns the configured store. When a remote backend cannot be
// reached and cache.allow_fallback is set, the file store is returned
// instead.
func (f *StoreFactory) Create(ctx context.Context) (cache.Store, error) {
	backend := f.cfg.Cache.Backend
	store, err := f.create(ctx, backend)
	if err == nil {
		f.logger.Info("Cache store ready", zap.String("backend", store.Name()))
		return store, nil
	}

	if !f.cfg.Cache.AllowFallback || backend == "file" || backend == "memory" {
		return nil, err
	}

	f.logger.Warn("Cache backend unavailable, falling back to file store",
		zap.String("backend", backend),
		zap.String("dir", f.cfg.Cache.Dir),
		zap.Error(err),
	)
	return cache.NewFileStore(f.cfg.Cache.Dir), nil
}

func (f *StoreFactory) create(ctx context.Context, backend string) (cache.Store, error) {
	switch backend {
	case "file", "":
		return cache.NewFileStore(f.cfg.Cache.Dir), nil
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		return f.createRedis()
	case "sql":
		return f.createSQL(ctx)
	case "s3":
		return f.createS3(ctx)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func (f *StoreFactory) createRedis() (cache.Store, error) {
	store, err := cache.NewRedisStore(cache.RedisConfig{
		Addr:      f.cfg.Redis.Addr(),
		Password:  f.cfg.Redis.Password,
		DB:        f.cfg.Redis.DB,
		KeyPrefix: f.cfg.Cache.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, store.Close)
	return store, nil
}

func (f *StoreFactory) createSQL(ctx context.Context) (cache.Store, error) {
	db, err := persistence.NewDatabase(&f.cfg.Database,
		persistence.WithLogger(f.logger.Named("gorm")),
		persistence.WithTracing(f.cfg.Telemetry.Enabled && f.cfg.Telemetry.DBTraceEnabled),
	)
	if err != nil {
		return nil, err
	}

	store := cache.NewSQLStore(db.DB)
	if f.cfg.Database.AutoMigrate {
		if err := f.migrate(ctx, db, store); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	f.closers = append(f.closers, db.Close)
	return store, nil
}

func (f *StoreFactory) migrate(_ context.Context, db *persistence.Database, store *cache.SQLStore) error {
	if db.Driver() == "sqlite" {
		return store.AutoMigrate()
	}

	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, f.logger.Named("migrate"))
	if err != nil {
		return err
	}
	// closing the migrator would close the shared *sql.DB
	return m.Up()
}

func (f *StoreFactory) createS3(ctx context.Context) (cache.Store, error) {
	store, err := NewS3Store(ctx, &f.cfg.Storage,
		WithS3Logger(f.logger),
		WithKeyPrefix(f.cfg.Cache.KeyPrefix),
	)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Close releases every connection opened by Create
func (f *StoreFactory) Close() error {
	var errs []error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}
