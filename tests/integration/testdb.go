// Package integration runs the cache backends and the HTTP stack against real
// PostgreSQL and Redis containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/migration"
)

const (
	testDBName     = "grnd_test"
	testDBUser     = "postgres"
	testDBPassword = "admin123"
)

var (
	// Shared container for all tests in a package
	sharedContainer   testcontainers.Container
	sharedContainerMu sync.Mutex
	sharedDatabase    config.DatabaseConfig
)

// TestDB represents a test database connection
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	Config    config.DatabaseConfig
	t         *testing.T
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

func startPostgres(t *testing.T) (testcontainers.Container, config.DatabaseConfig) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err, "Failed to get mapped port")

	return container, config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            testDBUser,
		Password:        testDBPassword,
		DBName:          testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		LogLevel:        "silent",
		SlowThreshold:   time.Second,
		AutoMigrate:     true,
	}
}

// NewTestDB creates a new PostgreSQL container with the schema migrated.
// Each call gets its own container.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)

	container, dbCfg := startPostgres(t)
	db, sqlDB := connectToDatabase(t, dbCfg)
	runMigrations(t, sqlDB)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		Config:    dbCfg,
		t:         t,
	}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewUnmigratedTestDB is NewTestDB without running migrations
func NewUnmigratedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)

	container, dbCfg := startPostgres(t)
	db, sqlDB := connectToDatabase(t, dbCfg)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		Config:    dbCfg,
		t:         t,
	}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB returns a connection to a container shared by the package.
// Tests using it must clean up the rows they write.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dbCfg := startPostgres(t)
		sharedContainer = container
		sharedDatabase = dbCfg

		_, sqlDB := connectToDatabase(t, dbCfg)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()
	}

	db, sqlDB := connectToDatabase(t, sharedDatabase)
	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: sharedContainer,
		Config:    sharedDatabase,
		t:         t,
	}

	// Only close the connection; the container outlives the test
	t.Cleanup(func() {
		if testDB.SqlDB != nil {
			_ = testDB.SqlDB.Close()
		}
	})
	return testDB
}

// Close closes the database connection and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}

	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables empties the cache table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	err := tdb.DB.Exec("TRUNCATE TABLE cache_entries").Error
	require.NoError(tdb.t, err, "Failed to truncate cache_entries")
}

func connectToDatabase(t *testing.T, dbCfg config.DatabaseConfig) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dbCfg.DSN()), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	return db, sqlDB
}

// runMigrations applies the embedded migrations
func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container.
// Call it from TestMain when shared containers are used.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedDatabase = config.DatabaseConfig{}
	}
}

// TestRedis is a Redis container for the redis cache backend
type TestRedis struct {
	Container testcontainers.Container
	Config    config.RedisConfig
}

// NewTestRedis starts a Redis container
func NewTestRedis(t *testing.T) *TestRedis {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err, "Failed to get mapped port")

	return &TestRedis{
		Container: container,
		Config:    config.RedisConfig{Host: host, Port: port.Int()},
	}
}
