package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grndstats/backend/internal/bootstrap"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/logger"
	"github.com/grndstats/backend/internal/infrastructure/scheduler"
	"github.com/grndstats/backend/internal/infrastructure/telemetry"
	"github.com/grndstats/backend/internal/interfaces/http/middleware"
)

//	@title			GRND Stats API
//	@version		1.0
//	@description	Holder, leaderboard and account statistics for the GRND frame

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:3000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin bearer token. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting GRND stats backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	// Telemetry first so every later component picks up the global providers
	providers, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricInterval:    cfg.Telemetry.MetricInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()
	log = telemetry.BridgeLogger(log, providers, cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		SpanProfiles:      cfg.Profiling.SpanProfiles,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Cache store, upstream clients and the stats service
	app, err := bootstrap.New(context.Background(), cfg, log,
		bootstrap.WithMeter(providers.Meter("grnd-stats")),
	)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}()

	engineOpts := bootstrap.EngineOptions{Meter: providers.Meter("http.server")}

	// Initialize dataset warmer (if enabled)
	if cfg.Scheduler.Enabled {
		warmer, err := scheduler.NewDatasetWarmer(scheduler.DatasetWarmerConfig{
			Schedule:   cfg.Scheduler.WarmCron,
			JobTimeout: cfg.Scheduler.JobTimeout,
			RunOnStart: true,
		}, app.Stats, log.Named("warmer"))
		if err != nil {
			log.Fatal("Failed to create dataset warmer", zap.Error(err))
		}
		if err := warmer.Start(context.Background()); err != nil {
			log.Fatal("Failed to start dataset warmer", zap.Error(err))
		}
		defer func() {
			if err := warmer.Stop(context.Background()); err != nil {
				log.Error("Error stopping dataset warmer", zap.Error(err))
			}
		}()
		engineOpts.Warmer = warmer
		log.Info("Dataset warmer started",
			zap.String("schedule", cfg.Scheduler.WarmCron),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	if cfg.HTTP.RateLimitEnabled {
		engineOpts.RateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go engineOpts.RateLimiter.RunCleanup(stopCleanup)
	}

	engine := bootstrap.NewEngine(app, engineOpts)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
