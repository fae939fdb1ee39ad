package integration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grndstats/backend/internal/infrastructure/cache"
)

// exerciseStore checks the Store contract shared by every backend
func exerciseStore(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "dune_data_default", []byte(`{"data":[1],"timestamp":1}`)))
	got, err := store.Get(ctx, "dune_data_default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1],"timestamp":1}`, string(got))

	require.NoError(t, store.Set(ctx, "dune_data_default", []byte(`{"data":[2],"timestamp":2}`)))
	got, err = store.Get(ctx, "dune_data_default")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[2],"timestamp":2}`, string(got))

	require.NoError(t, store.Delete(ctx, "dune_data_default"))
	_, err = store.Get(ctx, "dune_data_default")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.NoError(t, store.Delete(ctx, "dune_data_default"))
}

// exerciseReadThrough checks freshness handling against a real backend
func exerciseReadThrough(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c := cache.New(store, cache.WithClock(func() time.Time { return now }))
	rt := cache.NewReadThrough[[]string](c, time.Hour)

	var fetches atomic.Int32
	fetch := func(context.Context) ([]string, error) {
		fetches.Add(1)
		return []string{"alice", "bob"}, nil
	}

	v, err := rt.GetOrFetch(ctx, "holders_rt", fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, v)

	now = now.Add(59 * time.Minute)
	_, err = rt.GetOrFetch(ctx, "holders_rt", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())

	now = now.Add(2 * time.Minute)
	_, err = rt.GetOrFetch(ctx, "holders_rt", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())

	require.NoError(t, rt.Invalidate(ctx, "holders_rt"))
	_, err = store.Get(ctx, "holders_rt")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSQLStore_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	t.Cleanup(tdb.CleanTables)

	store := cache.NewSQLStore(tdb.DB)
	assert.Equal(t, "sql", store.Name())

	t.Run("store contract", func(t *testing.T) {
		exerciseStore(t, store)
	})

	t.Run("read through", func(t *testing.T) {
		exerciseReadThrough(t, store)
	})

	t.Run("upsert keeps one row", func(t *testing.T) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, store.Set(ctx, "resolve_fname_alice", []byte(`{"data":"1","timestamp":1}`)))
		}
		var count int64
		require.NoError(t, tdb.DB.Model(&cache.CacheEntry{}).Where("cache_key = ?", "resolve_fname_alice").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestRedisStore(t *testing.T) {
	tr := NewTestRedis(t)

	store, err := cache.NewRedisStore(cache.RedisConfig{
		Addr:      tr.Config.Addr(),
		KeyPrefix: "grnd:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	t.Run("store contract", func(t *testing.T) {
		exerciseStore(t, store)
	})

	t.Run("read through", func(t *testing.T) {
		exerciseReadThrough(t, store)
	})
}

func TestRedisStore_Unreachable(t *testing.T) {
	skipShort(t)

	_, err := cache.NewRedisStore(cache.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
