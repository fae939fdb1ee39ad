package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/grndstats/backend/internal/infrastructure/telemetry"
)

// Envelope is the persisted form of a cached value. Timestamp is the fetch
// time in Unix milliseconds.
type Envelope[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// Fetcher produces a fresh value on a cache miss.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache is the read-through engine shared by all typed caches. Concurrent
// misses for one key are collapsed into a single fetch.
type Cache struct {
	store    Store
	logger   *zap.Logger
	now      func() time.Time
	group    singleflight.Group
	requests *telemetry.Counter
	fetches  *telemetry.Histogram
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMeter records hit/miss counters and fetch latency on meter
func WithMeter(meter metric.Meter) Option {
	return func(c *Cache) {
		c.requests, _ = telemetry.NewCounter(meter, "cache_requests_total", "Read-through cache lookups by result")
		c.fetches, _ = telemetry.NewDurationHistogram(meter, "cache_fetch_duration_seconds",
			"Time spent fetching values on cache misses", telemetry.UpstreamDurationBuckets)
	}
}

// New creates a read-through cache over store
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	WithMeter(noop.NewMeterProvider().Meter("cache"))(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store
func (c *Cache) Store() Store {
	return c.store
}

// Invalidate deletes key. A missing key is a no-op.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	c.logger.Info("Cache entry invalidated", zap.String("key", key), zap.String("store", c.store.Name()))
	return nil
}

// GetOrFetch returns the cached value for key when it is younger than
// timeout; otherwise it calls fetch, persists the result and returns it.
//
// Read failures and undecodable entries count as misses. Write failures are
// logged and the fetched value is still returned. A fetch error is returned
// as-is and nothing is written; stale entries are never served.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, timeout time.Duration, fetch Fetcher[T]) (T, error) {
	return getOrFetch(ctx, c, key, timeout, fetch, nil)
}

func getOrFetch[T any](ctx context.Context, c *Cache, key string, timeout time.Duration, fetch Fetcher[T], cacheIf func(T) bool) (T, error) {
	attrs := []attribute.KeyValue{telemetry.AttrCache.String(family(key))}

	if v, ok := load[T](ctx, c, key, timeout); ok {
		c.requests.Inc(ctx, append(attrs, telemetry.AttrResult.String("hit"))...)
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := flightContext(ctx)
		defer cancel()
		// another caller may have refreshed the entry while we waited
		if v, ok := load[T](fetchCtx, c, key, timeout); ok {
			return v, nil
		}
		return fetchAndSave(fetchCtx, c, key, fetch, cacheIf, attrs)
	})
	return await[T](ctx, c, ch, attrs)
}

func refresh[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], cacheIf func(T) bool) (T, error) {
	attrs := []attribute.KeyValue{telemetry.AttrCache.String(family(key))}

	ch := c.group.DoChan("refresh:"+key, func() (any, error) {
		fetchCtx, cancel := flightContext(ctx)
		defer cancel()
		return fetchAndSave(fetchCtx, c, key, fetch, cacheIf, attrs)
	})
	return await[T](ctx, c, ch, attrs)
}

// flightContext detaches the shared fetch from the initiating caller's
// cancellation but keeps its deadline, so a bounded caller also bounds the
// upstream call. Callers joining the flight share that deadline.
func flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	fetchCtx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(fetchCtx, deadline)
	}
	return fetchCtx, func() {}
}

func fetchAndSave[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], cacheIf func(T) bool, attrs []attribute.KeyValue) (any, error) {
	start := c.now()
	v, err := fetch(ctx)
	c.fetches.RecordDuration(ctx, c.now().Sub(start), attrs...)
	if err != nil {
		return v, err
	}
	if cacheIf == nil || cacheIf(v) {
		save(ctx, c, key, v)
	}
	return v, nil
}

func await[T any](ctx context.Context, c *Cache, ch <-chan singleflight.Result, attrs []attribute.KeyValue) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.requests.Inc(ctx, append(attrs, telemetry.AttrResult.String("error"))...)
			return zero, res.Err
		}
		c.requests.Inc(ctx, append(attrs, telemetry.AttrResult.String("miss"))...)
		v, _ := res.Val.(T)
		return v, nil
	}
}

func load[T any](ctx context.Context, c *Cache, key string, timeout time.Duration) (T, bool) {
	var zero T
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Cache read failed, treating as miss",
				zap.String("key", key), zap.String("store", c.store.Name()), zap.Error(err))
		}
		return zero, false
	}

	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("Cache entry is corrupt, treating as miss",
			zap.String("key", key), zap.String("store", c.store.Name()), zap.Error(err))
		return zero, false
	}

	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age < 0 {
		c.logger.Warn("Cache entry is timestamped in the future, treating as miss",
			zap.String("key", key), zap.Duration("skew", -age))
		return zero, false
	}
	if timeout <= 0 || age >= timeout {
		c.logger.Debug("Cache entry expired", zap.String("key", key), zap.Duration("age", age))
		return zero, false
	}
	return env.Data, true
}

func save[T any](ctx context.Context, c *Cache, key string, v T) {
	raw, err := json.Marshal(Envelope[T]{Data: v, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.logger.Error("Cache entry could not be encoded", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.String("store", c.store.Name()), zap.Error(err))
	}
}

// family is the key segment before the first "_", used as a metric label.
func family(key string) string {
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}

// ReadThrough binds a value type, a freshness window and a persistence
// predicate to a Cache.
type ReadThrough[T any] struct {
	cache   *Cache
	timeout time.Duration
	cacheIf func(T) bool
}

// ReadThroughOption configures a ReadThrough
type ReadThroughOption[T any] func(*ReadThrough[T])

// WithCacheIf persists fetched values only when keep returns true, e.g. to
// avoid pinning an empty result for the whole freshness window.
func WithCacheIf[T any](keep func(T) bool) ReadThroughOption[T] {
	return func(r *ReadThrough[T]) {
		r.cacheIf = keep
	}
}

// NewReadThrough creates a typed read-through view
func NewReadThrough[T any](c *Cache, timeout time.Duration, opts ...ReadThroughOption[T]) *ReadThrough[T] {
	r := &ReadThrough[T]{cache: c, timeout: timeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrFetch is GetOrFetch with the bound timeout and predicate
func (r *ReadThrough[T]) GetOrFetch(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	return getOrFetch(ctx, r.cache, key, r.timeout, fetch, r.cacheIf)
}

// Refresh fetches key regardless of the cached entry's age and overwrites
// it on success. On error the existing entry is left untouched.
func (r *ReadThrough[T]) Refresh(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	return refresh(ctx, r.cache, key, fetch, r.cacheIf)
}

// Invalidate deletes key
func (r *ReadThrough[T]) Invalidate(ctx context.Context, key string) error {
	return r.cache.Invalidate(ctx, key)
}

// Timeout returns the freshness window
func (r *ReadThrough[T]) Timeout() time.Duration {
	return r.timeout
}
