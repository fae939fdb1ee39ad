package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/logger"
)

// Database wraps the GORM connection used by the sql cache backend
type Database struct {
	DB     *gorm.DB
	driver string
}

// Option configures NewDatabase
type Option func(*options)

type options struct {
	logger  *zap.Logger
	tracing bool
}

// WithLogger routes GORM logs through logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracing registers the otelgorm plugin so each query becomes a span
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

// NewDatabase opens a connection for cfg.Driver ("postgres" or "sqlite")
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:                 logger.NewGormLogger(o.logger, logger.GormLevel(cfg.LogLevel), cfg.SlowThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != "sqlite",
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if o.tracing {
		if err := EnableTracing(db, cfg.DBName); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	o.logger.Info("Database connected",
		zap.String("driver", driverName(cfg.Driver)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Bool("tracing", o.tracing),
	)

	return &Database{DB: db, driver: driverName(cfg.Driver)}, nil
}

// NewDatabaseFromGorm wraps an existing connection, mainly for tests
func NewDatabaseFromGorm(db *gorm.DB, driver string) *Database {
	return &Database{DB: db, driver: driverName(driver)}
}

// EnableTracing installs the otelgorm plugin on db
func EnableTracing(db *gorm.DB, dbName string) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to enable database tracing: %w", err)
	}
	return nil
}

// Driver returns the dialect name
func (d *Database) Driver() string {
	return d.driver
}

// SQL returns the underlying *sql.DB
func (d *Database) SQL() (*sql.DB, error) {
	return d.DB.DB()
}

// Ping checks that the database is reachable
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func driverName(driver string) string {
	if driver == "" {
		return "postgres"
	}
	return driver
}
