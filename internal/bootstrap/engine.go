package bootstrap

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	_ "github.com/grndstats/backend/docs"
	"github.com/grndstats/backend/internal/infrastructure/logger"
	"github.com/grndstats/backend/internal/interfaces/http/handler"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
	"github.com/grndstats/backend/internal/interfaces/http/router"
)

// EngineOptions are the runtime pieces the engine needs besides the App
type EngineOptions struct {
	// Meter records HTTP server metrics; nil uses a no-op meter
	Meter metric.Meter
	// Warmer reports the scheduled warm-up; leave nil when it is disabled
	Warmer handler.WarmerStatus
	// RateLimiter is shared so the caller can run its cleanup loop
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the full middleware chain and every
// route mounted.
func NewEngine(app *App, opts EngineOptions) *gin.Engine {
	cfg := app.Config
	log := app.Logger
	if opts.Meter == nil {
		opts.Meter = noop.NewMeterProvider().Meter("http.server")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - generate/propagate request id
	// 2. Logger - request-scoped logger and access log
	// 3. Recovery - catch panics
	// 4. Tracing - server span, then span attributes and error status
	// 5. Metrics and profiling labels
	// 6. Security headers, CORS, body limit, request timeout
	// 7. RateLimit (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(opts.Meter))
	if cfg.Profiling.Enabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORS(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	if cfg.HTTP.RateLimitEnabled {
		limiter := opts.RateLimiter
		if limiter == nil {
			limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		}
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, app.HealthChecks())
	statsHandler := handler.NewStatsHandler(app.Stats)
	adminHandler := handler.NewAdminHandler(app.Stats, DatasetKey(cfg.Dune), opts.Warmer, cfg.Scheduler.WarmCron)
	adminAuth := middleware.AdminAuth(app.JWT, log)

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, adminAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		router.SystemRoutes(systemHandler),
		router.StatsRoutes(statsHandler),
		router.AdminRoutes(adminHandler, adminAuth),
	)
	r.Setup()

	return engine
}
