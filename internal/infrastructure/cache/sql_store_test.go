package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grndstats/backend/tests/testutil"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := NewSQLStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func TestSQLStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, err := store.Get(ctx, "dune_data_default")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "dune_data_default", []byte(`{"data":1}`)))
	got, err := store.Get(ctx, "dune_data_default")
	require.NoError(t, err)
	assert.Equal(t, `{"data":1}`, string(got))

	// upsert replaces the value
	require.NoError(t, store.Set(ctx, "dune_data_default", []byte(`{"data":2}`)))
	got, err = store.Get(ctx, "dune_data_default")
	require.NoError(t, err)
	assert.Equal(t, `{"data":2}`, string(got))

	require.NoError(t, store.Delete(ctx, "dune_data_default"))
	_, err = store.Get(ctx, "dune_data_default")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "absent"))
	assert.Equal(t, "sql", store.Name())
}

func TestSQLStore_WithReadThrough(t *testing.T) {
	ctx := context.Background()
	c := New(newSQLiteStore(t))

	calls := 0
	fetch := func(context.Context) ([]string, error) {
		calls++
		return []string{"alice"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrFetch(ctx, c, "airstack_search_alice", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestSQLStore_PostgresErrorsAreWrapped(t *testing.T) {
	mockDB := testutil.NewMockDB(t)

	mockDB.Mock.ExpectQuery(`SELECT \* FROM "cache_entries" WHERE cache_key = \$1`).
		WillReturnError(errors.New("connection reset"))

	_, err := NewSQLStore(mockDB.DB).Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "sql get")
	mockDB.ExpectationsWereMet(t)
}

func TestSQLStore_PostgresMissingRowIsMiss(t *testing.T) {
	mockDB := testutil.NewMockDB(t)

	mockDB.Mock.ExpectQuery(`SELECT \* FROM "cache_entries" WHERE cache_key = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"cache_key", "value", "updated_at"}))

	_, err := NewSQLStore(mockDB.DB).Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	mockDB.ExpectationsWereMet(t)
}
