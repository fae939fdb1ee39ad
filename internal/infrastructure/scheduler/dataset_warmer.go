package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrWarmerNotRunning is returned by Stop when the warmer was never started
var ErrWarmerNotRunning = errors.New("dataset warmer is not running")

// HolderWarmer refreshes the cached holder snapshot
type HolderWarmer interface {
	WarmHolders(ctx context.Context) (int, error)
}

// DatasetWarmerConfig holds configuration for the dataset warmer
type DatasetWarmerConfig struct {
	// Schedule is a standard cron expression or descriptor such as "@every 30m"
	Schedule string
	// JobTimeout is the maximum time a single refresh can run
	JobTimeout time.Duration
	// RunOnStart refreshes once immediately after Start
	RunOnStart bool
}

// DefaultDatasetWarmerConfig returns default warmer configuration
func DefaultDatasetWarmerConfig() DatasetWarmerConfig {
	return DatasetWarmerConfig{
		Schedule:   "@every 30m",
		JobTimeout: 2 * time.Minute,
		RunOnStart: true,
	}
}

// DatasetWarmer periodically refetches the holder snapshot so request paths
// rarely pay for a warehouse round trip. Overlapping runs are skipped.
type DatasetWarmer struct {
	config DatasetWarmerConfig
	warmer HolderWarmer
	logger *zap.Logger
	cron   *cron.Cron

	mu        sync.Mutex
	isRunning bool
	baseCtx   context.Context
	cancel    context.CancelFunc
	lastRun   time.Time
	lastErr   error
	runs      int
}

// NewDatasetWarmer validates the schedule and builds a warmer
func NewDatasetWarmer(config DatasetWarmerConfig, warmer HolderWarmer, logger *zap.Logger) (*DatasetWarmer, error) {
	if warmer == nil {
		return nil, fmt.Errorf("dataset warmer requires a holder warmer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultDatasetWarmerConfig().JobTimeout
	}

	cronLog := cronLogger{logger: logger.Named("cron")}
	w := &DatasetWarmer{
		config: config,
		warmer: warmer,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
	if _, err := w.cron.AddFunc(config.Schedule, w.tick); err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", config.Schedule, err)
	}
	return w, nil
}

// Start starts the cron loop
func (w *DatasetWarmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	w.baseCtx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.mu.Unlock()

	w.cron.Start()
	w.logger.Info("Dataset warmer started",
		zap.String("schedule", w.config.Schedule),
		zap.Duration("job_timeout", w.config.JobTimeout),
	)

	if w.config.RunOnStart {
		go w.tick()
	}
	return nil
}

// Stop stops scheduling and waits for a running refresh to finish or ctx to
// expire, whichever comes first.
func (w *DatasetWarmer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return ErrWarmerNotRunning
	}
	w.isRunning = false
	cancel := w.cancel
	w.mu.Unlock()

	done := w.cron.Stop()
	select {
	case <-done.Done():
		cancel()
		w.logger.Info("Dataset warmer stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// RunOnce refreshes the snapshot synchronously. JobTimeout becomes the
// deadline of the upstream fetch as well as of the wait.
func (w *DatasetWarmer) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	start := time.Now()
	n, err := w.warmer.WarmHolders(ctx)

	w.mu.Lock()
	w.lastRun = start
	w.lastErr = err
	w.runs++
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Dataset refresh failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return 0, err
	}
	w.logger.Info("Dataset refreshed", zap.Int("holders", n), zap.Duration("duration", time.Since(start)))
	return n, nil
}

// Status returns the time and outcome of the most recent refresh
func (w *DatasetWarmer) Status() (lastRun time.Time, runs int, lastErr error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun, w.runs, w.lastErr
}

func (w *DatasetWarmer) tick() {
	w.mu.Lock()
	ctx := w.baseCtx
	w.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_, _ = w.RunOnce(ctx)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
