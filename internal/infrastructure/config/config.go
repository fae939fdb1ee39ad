package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Airstack  AirstackConfig
	Dune      DuneConfig
	Pinata    PinataConfig
	Identity  IdentityConfig
	Token     TokenConfig
	Matcher   MatcherConfig
	Admin     AdminConfig
	Scheduler SchedulerConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CacheConfig selects the response cache backend and its freshness windows.
// Timeouts are in seconds to match the environment overrides operators
// already use (GRND_CACHE_DATASET_TIMEOUT_SECONDS=21600).
type CacheConfig struct {
	Backend               string // file, memory, redis, sql, s3
	Dir                   string // file backend directory
	KeyPrefix             string // redis and s3 key prefix
	AllowFallback         bool   // fall back to the file backend if a remote backend is down
	DatasetTimeoutSeconds int
	APITimeoutSeconds     int
}

// DatasetTimeout is the holder snapshot freshness window.
func (c CacheConfig) DatasetTimeout() time.Duration {
	return time.Duration(c.DatasetTimeoutSeconds) * time.Second
}

// APITimeout is the freshness window for identity and token lookups.
func (c CacheConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds settings for the sql cache backend
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
	AutoMigrate     bool
}

// StorageConfig holds S3-compatible object storage settings for the s3 cache backend
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// AirstackConfig holds identity graph API settings
type AirstackConfig struct {
	APIKey    string
	URL       string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
	RateBurst int
}

// DuneConfig holds warehouse query settings. Deployment scopes the cache
// key so several deployments can share one cache directory.
type DuneConfig struct {
	APIKey        string
	QueryID       string
	Deployment    string
	URL           string
	Timeout       time.Duration
	Limit         int
	IDColumn      string
	NameColumn    string
	AddressColumn string
	MetricColumn  string
}

// PinataConfig holds Farcaster hub API settings
type PinataConfig struct {
	JWT     string
	URL     string
	Timeout time.Duration
}

// IdentityConfig selects the profile source
type IdentityConfig struct {
	ProfileProvider string // airstack, pinata
	ENSEnabled      bool
}

// TokenConfig holds the tracked token contracts
type TokenConfig struct {
	Chain              string
	TokenAddress       string
	PassAddress        string
	DistributorAddress string
	ClaimsSince        time.Time
	ClaimReward        string // decimal amount per claim
	ClaimMinAmount     string // transfers at or below this are not claims
	ClaimLimit         int
}

// MatcherConfig holds holder matcher settings
type MatcherConfig struct {
	FuzzyThreshold float64
}

// AdminConfig holds admin API token settings
type AdminConfig struct {
	JWTSecret  string
	Issuer     string
	Expiration time.Duration
}

// SchedulerConfig holds dataset warm-up settings
type SchedulerConfig struct {
	Enabled    bool
	WarmCron   string
	JobTimeout time.Duration
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	LogsEnabled       bool
	MetricInterval    time.Duration
	DBTraceEnabled    bool
}

// ProfilingConfig holds Pyroscope settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	BasicAuthUser     string
	BasicAuthPassword string
	SpanProfiles      bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GRND_ prefix (e.g., GRND_DUNE_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path searches
// the default locations.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("GRND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	claimsSince, err := parseTime(v.GetString("token.claims_since"))
	if err != nil {
		return nil, fmt.Errorf("token.claims_since: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			RequestTimeout:    v.GetDuration("http.request_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Cache: CacheConfig{
			Backend:               v.GetString("cache.backend"),
			Dir:                   v.GetString("cache.dir"),
			KeyPrefix:             v.GetString("cache.key_prefix"),
			AllowFallback:         v.GetBool("cache.allow_fallback"),
			DatasetTimeoutSeconds: v.GetInt("cache.dataset_timeout_seconds"),
			APITimeoutSeconds:     v.GetInt("cache.api_timeout_seconds"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Airstack: AirstackConfig{
			APIKey:    v.GetString("airstack.api_key"),
			URL:       v.GetString("airstack.url"),
			Timeout:   v.GetDuration("airstack.timeout"),
			RateLimit: v.GetFloat64("airstack.rate_limit"),
			RateBurst: v.GetInt("airstack.rate_burst"),
		},
		Dune: DuneConfig{
			APIKey:        v.GetString("dune.api_key"),
			QueryID:       v.GetString("dune.query_id"),
			Deployment:    v.GetString("dune.deployment"),
			URL:           v.GetString("dune.url"),
			Timeout:       v.GetDuration("dune.timeout"),
			Limit:         v.GetInt("dune.limit"),
			IDColumn:      v.GetString("dune.id_column"),
			NameColumn:    v.GetString("dune.name_column"),
			AddressColumn: v.GetString("dune.address_column"),
			MetricColumn:  v.GetString("dune.metric_column"),
		},
		Pinata: PinataConfig{
			JWT:     v.GetString("pinata.jwt"),
			URL:     v.GetString("pinata.url"),
			Timeout: v.GetDuration("pinata.timeout"),
		},
		Identity: IdentityConfig{
			ProfileProvider: v.GetString("identity.profile_provider"),
			ENSEnabled:      v.GetBool("identity.ens_enabled"),
		},
		Token: TokenConfig{
			Chain:              v.GetString("token.chain"),
			TokenAddress:       v.GetString("token.token_address"),
			PassAddress:        v.GetString("token.pass_address"),
			DistributorAddress: v.GetString("token.distributor_address"),
			ClaimsSince:        claimsSince,
			ClaimReward:        v.GetString("token.claim_reward"),
			ClaimMinAmount:     v.GetString("token.claim_min_amount"),
			ClaimLimit:         v.GetInt("token.claim_limit"),
		},
		Matcher: MatcherConfig{
			FuzzyThreshold: v.GetFloat64("matcher.fuzzy_threshold"),
		},
		Admin: AdminConfig{
			JWTSecret:  v.GetString("admin.jwt_secret"),
			Issuer:     v.GetString("admin.issuer"),
			Expiration: v.GetDuration("admin.expiration"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			WarmCron:   v.GetString("scheduler.warm_cron"),
			JobTimeout: v.GetDuration("scheduler.job_timeout"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			MetricInterval:    v.GetDuration("telemetry.metric_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "grnd-stats"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 25 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = ".cache"
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "grnd:cache:"
	}
	if cfg.Cache.DatasetTimeoutSeconds == 0 {
		cfg.Cache.DatasetTimeoutSeconds = 21600
	}
	if cfg.Cache.APITimeoutSeconds == 0 {
		cfg.Cache.APITimeoutSeconds = 3600
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "grnd"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "grnd-cache.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Airstack.URL == "" {
		cfg.Airstack.URL = "https://api.airstack.xyz/gql"
	}
	if cfg.Airstack.Timeout == 0 {
		cfg.Airstack.Timeout = 10 * time.Second
	}
	if cfg.Airstack.RateBurst == 0 {
		cfg.Airstack.RateBurst = 5
	}

	if cfg.Dune.URL == "" {
		cfg.Dune.URL = "https://api.dune.com"
	}
	if cfg.Dune.Deployment == "" {
		cfg.Dune.Deployment = "default"
	}
	if cfg.Dune.Timeout == 0 {
		cfg.Dune.Timeout = 30 * time.Second
	}
	if cfg.Dune.IDColumn == "" {
		cfg.Dune.IDColumn = "fid"
	}
	if cfg.Dune.NameColumn == "" {
		cfg.Dune.NameColumn = "fname"
	}
	if cfg.Dune.AddressColumn == "" {
		cfg.Dune.AddressColumn = "verified_addresses"
	}
	if cfg.Dune.MetricColumn == "" {
		cfg.Dune.MetricColumn = "total_grnd_spent"
	}

	if cfg.Pinata.URL == "" {
		cfg.Pinata.URL = "https://api.pinata.cloud"
	}
	if cfg.Pinata.Timeout == 0 {
		cfg.Pinata.Timeout = 10 * time.Second
	}

	if cfg.Identity.ProfileProvider == "" {
		cfg.Identity.ProfileProvider = "airstack"
	}

	if cfg.Token.Chain == "" {
		cfg.Token.Chain = "base"
	}
	if cfg.Token.TokenAddress == "" {
		cfg.Token.TokenAddress = "0xd94393cd7fcceb749cd844e89167d4a2cdc64541"
	}
	if cfg.Token.PassAddress == "" {
		cfg.Token.PassAddress = "0xa08a01b9a890e9ad5c26f7257e3558d256df8059"
	}
	if cfg.Token.DistributorAddress == "" {
		cfg.Token.DistributorAddress = "0x20bc4c4f593067d298fdcc14a60fef5dfc93fd8e"
	}
	if cfg.Token.ClaimsSince.IsZero() {
		cfg.Token.ClaimsSince = time.Date(2024, 6, 1, 13, 53, 17, 0, time.UTC)
	}
	if cfg.Token.ClaimReward == "" {
		cfg.Token.ClaimReward = "500000"
	}
	if cfg.Token.ClaimMinAmount == "" {
		cfg.Token.ClaimMinAmount = "1000000000"
	}
	if cfg.Token.ClaimLimit == 0 {
		cfg.Token.ClaimLimit = 200
	}

	if cfg.Matcher.FuzzyThreshold == 0 {
		cfg.Matcher.FuzzyThreshold = 0.3
	}

	if cfg.Admin.Issuer == "" {
		cfg.Admin.Issuer = "grnd-stats"
	}
	if cfg.Admin.Expiration == 0 {
		cfg.Admin.Expiration = 24 * time.Hour
	}

	if cfg.Scheduler.WarmCron == "" {
		cfg.Scheduler.WarmCron = "@every 30m"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 2 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

var cacheBackends = map[string]bool{"file": true, "memory": true, "redis": true, "sql": true, "s3": true}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !cacheBackends[c.Cache.Backend] {
		return fmt.Errorf("cache.backend must be one of file, memory, redis, sql, s3; got %q", c.Cache.Backend)
	}
	if c.Cache.DatasetTimeoutSeconds < 0 || c.Cache.APITimeoutSeconds < 0 {
		return fmt.Errorf("cache timeouts cannot be negative")
	}
	if c.Cache.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when cache.backend is s3")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite; got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Matcher.FuzzyThreshold < 0 || c.Matcher.FuzzyThreshold > 1 {
		return fmt.Errorf("matcher.fuzzy_threshold must be between 0 and 1, got %f", c.Matcher.FuzzyThreshold)
	}
	if c.Identity.ProfileProvider != "airstack" && c.Identity.ProfileProvider != "pinata" {
		return fmt.Errorf("identity.profile_provider must be airstack or pinata; got %q", c.Identity.ProfileProvider)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if len(c.Admin.JWTSecret) < 32 {
			return fmt.Errorf("admin.jwt_secret must be at least 32 characters in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Cache.Backend == "memory" {
			return fmt.Errorf("cache.backend=memory is not allowed in production")
		}
	}

	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port for Redis.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
