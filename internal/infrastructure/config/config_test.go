package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"GRND_APP_ENV",
	"GRND_APP_PORT",
	"GRND_CACHE_BACKEND",
	"GRND_CACHE_DATASET_TIMEOUT_SECONDS",
	"GRND_CACHE_API_TIMEOUT_SECONDS",
	"GRND_DUNE_API_KEY",
	"GRND_DUNE_QUERY_ID",
	"GRND_DUNE_DEPLOYMENT",
	"GRND_MATCHER_FUZZY_THRESHOLD",
	"GRND_ADMIN_JWT_SECRET",
	"GRND_HTTP_CORS_ALLOW_ORIGINS",
	"GRND_STORAGE_BUCKET",
	"GRND_TOKEN_CLAIMS_SINCE",
	"GRND_IDENTITY_PROFILE_PROVIDER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v)
			os.Unsetenv(k)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "grnd-stats", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "3000", cfg.App.Port)
		assert.Equal(t, "file", cfg.Cache.Backend)
		assert.Equal(t, ".cache", cfg.Cache.Dir)
		assert.Equal(t, 6*time.Hour, cfg.Cache.DatasetTimeout())
		assert.Equal(t, time.Hour, cfg.Cache.APITimeout())
		assert.Equal(t, 0.3, cfg.Matcher.FuzzyThreshold)
		assert.Equal(t, "fid", cfg.Dune.IDColumn)
		assert.Equal(t, "default", cfg.Dune.Deployment)
		assert.Equal(t, "500000", cfg.Token.ClaimReward)
		assert.Equal(t, time.Date(2024, 6, 1, 13, 53, 17, 0, time.UTC), cfg.Token.ClaimsSince)
		assert.Equal(t, "airstack", cfg.Identity.ProfileProvider)
		assert.Equal(t, "grnd-stats", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with GRND prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_APP_PORT", "9000")
		t.Setenv("GRND_CACHE_BACKEND", "memory")
		t.Setenv("GRND_CACHE_DATASET_TIMEOUT_SECONDS", "60")
		t.Setenv("GRND_DUNE_API_KEY", "dune-key")
		t.Setenv("GRND_DUNE_QUERY_ID", "3456")
		t.Setenv("GRND_DUNE_DEPLOYMENT", "alice")
		t.Setenv("GRND_MATCHER_FUZZY_THRESHOLD", "0.2")
		t.Setenv("GRND_TOKEN_CLAIMS_SINCE", "2025-01-02T03:04:05Z")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, time.Minute, cfg.Cache.DatasetTimeout())
		assert.Equal(t, "dune-key", cfg.Dune.APIKey)
		assert.Equal(t, "3456", cfg.Dune.QueryID)
		assert.Equal(t, "alice", cfg.Dune.Deployment)
		assert.Equal(t, 0.2, cfg.Matcher.FuzzyThreshold)
		assert.Equal(t, 2025, cfg.Token.ClaimsSince.Year())
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_CACHE_BACKEND", "floppy")

		_, err := Load()
		assert.ErrorContains(t, err, "cache.backend")
	})

	t.Run("s3 backend needs a bucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_CACHE_BACKEND", "s3")

		_, err := Load()
		assert.ErrorContains(t, err, "storage.bucket")
	})

	t.Run("rejects bad claims timestamp", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_TOKEN_CLAIMS_SINCE", "yesterday")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects unknown profile provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_IDENTITY_PROFILE_PROVIDER", "myspace")

		_, err := Load()
		assert.ErrorContains(t, err, "identity.profile_provider")
	})
}

func TestLoad_Production(t *testing.T) {
	t.Run("requires admin secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_APP_ENV", "production")

		_, err := Load()
		assert.ErrorContains(t, err, "admin.jwt_secret")
	})

	t.Run("rejects wildcard cors", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_APP_ENV", "production")
		t.Setenv("GRND_ADMIN_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("GRND_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		assert.ErrorContains(t, err, "cors_allow_origins")
	})

	t.Run("valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRND_APP_ENV", "production")
		t.Setenv("GRND_ADMIN_JWT_SECRET", "0123456789abcdef0123456789abcdef")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestLoadFrom(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[cache]
backend = "redis"
dir = "/var/cache/grnd"

[redis]
host = "redis.internal"
port = 6380

[dune]
query_id = "42"
`), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "/var/cache/grnd", cfg.Cache.Dir)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr())
	assert.Equal(t, "42", cfg.Dune.QueryID)

	_, err = LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p@ss", Host: "db", Port: 5432, DBName: "grnd", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/grnd?sslmode=disable", d.DSN())
}
