package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/cache"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/tests/testutil"
)

const testSecret = "test-admin-secret-at-least-32-characters"

func testConfig(duneURL, airstackURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "grnd-stats", Env: "test", Version: "1.2.3"},
		HTTP: config.HTTPConfig{
			RequestTimeout:   5 * time.Second,
			MaxBodySize:      1 << 20,
			CORSAllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			CORSAllowHeaders: []string{"Content-Type", "Authorization"},
		},
		Cache:    config.CacheConfig{Backend: "memory", DatasetTimeoutSeconds: 3600, APITimeoutSeconds: 600},
		Airstack: config.AirstackConfig{APIKey: "airstack-key", URL: airstackURL, Timeout: 2 * time.Second},
		Dune: config.DuneConfig{
			APIKey:     "dune-key",
			QueryID:    "3804190",
			Deployment: "test",
			URL:        duneURL,
			Timeout:    2 * time.Second,
		},
		Identity: config.IdentityConfig{ProfileProvider: "airstack"},
		Token: config.TokenConfig{
			Chain:          "base",
			ClaimReward:    "500000",
			ClaimMinAmount: "1000000000",
			ClaimLimit:     10,
		},
		Matcher:   config.MatcherConfig{FuzzyThreshold: 0.3},
		Admin:     config.AdminConfig{JWTSecret: testSecret, Issuer: "grnd-stats", Expiration: time.Hour},
		Scheduler: config.SchedulerConfig{WarmCron: "@every 30m"},
	}
}

type testEnv struct {
	app      *App
	engine   *gin.Engine
	dune     *testutil.UpstreamServer
	airstack *testutil.UpstreamServer
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	dune := testutil.NewDuneServer(t,
		testutil.Holder{ID: 1, Name: "alice", Addresses: []string{"0xaaaa000000000000000000000000000000000001"}, Spent: "1500"},
		testutil.Holder{ID: 2, Name: "bob", Spent: "900"},
		testutil.Holder{ID: 3, Name: "carol", Spent: "2400"},
	)
	airstack := testutil.NewStatusServer(t, http.StatusInternalServerError)

	cfg := testConfig(dune.URL, airstack.URL)
	if mutate != nil {
		mutate(cfg)
	}

	app, err := New(context.Background(), cfg, zap.NewNop(), WithStore(cache.NewMemoryStore()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return &testEnv{
		app:      app,
		engine:   NewEngine(app, EngineOptions{}),
		dune:     dune,
		airstack: airstack,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, testutil.Envelope) {
	t.Helper()
	return testutil.Do(t, e.engine, method, path, token)
}

func TestNew_RequiresProviderCredentials(t *testing.T) {
	t.Run("airstack key", func(t *testing.T) {
		cfg := testConfig("http://dune.invalid", "http://airstack.invalid")
		cfg.Airstack.APIKey = ""
		_, err := New(context.Background(), cfg, nil, WithStore(cache.NewMemoryStore()))
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})

	t.Run("dune query id", func(t *testing.T) {
		cfg := testConfig("http://dune.invalid", "http://airstack.invalid")
		cfg.Dune.QueryID = ""
		_, err := New(context.Background(), cfg, nil, WithStore(cache.NewMemoryStore()))
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})

	t.Run("pinata jwt when selected", func(t *testing.T) {
		cfg := testConfig("http://dune.invalid", "http://airstack.invalid")
		cfg.Identity.ProfileProvider = "pinata"
		_, err := New(context.Background(), cfg, nil, WithStore(cache.NewMemoryStore()))
		assert.ErrorIs(t, err, shared.ErrConfiguration)
	})
}

func TestNewSettings(t *testing.T) {
	cfg := testConfig("", "")
	settings, err := NewSettings(cfg)
	require.NoError(t, err)

	assert.Equal(t, "dune_data_test", settings.DatasetKey)
	assert.Equal(t, time.Hour, settings.DatasetTimeout)
	assert.Equal(t, 10*time.Minute, settings.APITimeout)
	assert.Equal(t, "500000", settings.ClaimReward.String())
	assert.Equal(t, 10, settings.ClaimLimit)

	cfg.Token.ClaimReward = "lots"
	_, err = NewSettings(cfg)
	assert.Error(t, err)
}

func TestDatasetKey(t *testing.T) {
	assert.Equal(t, "dune_data_default", DatasetKey(config.DuneConfig{Deployment: "default"}))
	assert.Equal(t, "dune_data_eu-west", DatasetKey(config.DuneConfig{Deployment: "eu-west"}))
}

type failingStore struct {
	*cache.MemoryStore
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestApp_HealthChecks(t *testing.T) {
	app := &App{Store: cache.NewMemoryStore()}
	check := app.HealthChecks()["cache"]
	require.NotNil(t, check)
	assert.NoError(t, check(context.Background()))

	app.Store = failingStore{cache.NewMemoryStore()}
	assert.EqualError(t, app.HealthChecks()["cache"](context.Background()), "connection refused")
}

func TestEngine_PublicRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("health", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", testutil.Data[map[string]any](t, body)["status"])
	})

	t.Run("system info", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/system/info", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1.2.3", testutil.Data[map[string]any](t, body)["version"])
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("numeric resolve stays local", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/resolve?input=42", "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := testutil.Data[map[string]any](t, body)
		assert.Equal(t, "42", data["id"])
		assert.Equal(t, true, data["found"])
		assert.Zero(t, env.airstack.Calls())
	})

	t.Run("leaderboard reads the snapshot once", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/leaderboard?limit=2", "")
		require.Equal(t, http.StatusOK, w.Code)
		data := testutil.Data[map[string]any](t, body)
		entries := data["entries"].([]any)
		require.Len(t, entries, 2)
		assert.Equal(t, "carol", entries[0].(map[string]any)["display_name"])
		assert.Equal(t, float64(3), data["holders"])

		w, _ = env.do(t, http.MethodGet, "/api/v1/holders/match?input=ALICE", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(1), env.dune.Calls())
	})

	t.Run("upstream failure maps to 502", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/resolve?input=someone", "")
		testutil.AssertError(t, w, body, http.StatusBadGateway, "ERR_UPSTREAM")
	})

	t.Run("validation error", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/leaderboard?limit=500", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, body.Success)
	})

	t.Run("swagger disabled", func(t *testing.T) {
		w, _ := env.do(t, http.MethodGet, "/swagger/index.html", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEngine_AdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("requires a token", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/v1/admin/cache/holders/warm", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, env.dune.Calls())
	})

	issued, err := env.app.JWT.Issue("ops", time.Hour)
	require.NoError(t, err)

	t.Run("warm and invalidate", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/v1/admin/cache/holders/warm", issued.Token)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, float64(3), testutil.Data[map[string]any](t, body)["holders"])

		w, body = env.do(t, http.MethodPost, "/api/v1/admin/cache/holders/invalidate", issued.Token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "dune_data_test", testutil.Data[map[string]any](t, body)["key"])

		w, _ = env.do(t, http.MethodGet, "/api/v1/leaderboard", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(2), env.dune.Calls())
	})

	t.Run("scheduler status without warmer", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/admin/scheduler", issued.Token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, testutil.Data[map[string]any](t, body)["enabled"])
	})
}

func TestEngine_AdminDisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Admin.JWTSecret = ""
	})

	w, body := env.do(t, http.MethodPost, "/api/v1/admin/cache/holders/invalidate", "anything")
	testutil.AssertError(t, w, body, http.StatusServiceUnavailable, "ERR_CONFIGURATION")
}

func TestEngine_SwaggerEnabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Swagger.Enabled = true
	})

	w, _ := env.do(t, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/holders/match")
}
