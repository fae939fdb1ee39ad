package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/infrastructure/migration"
)

func tableExists(t *testing.T, tdb *TestDB, name string) bool {
	t.Helper()
	var exists bool
	err := tdb.SqlDB.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = $1)`, name,
	).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrator_Lifecycle(t *testing.T) {
	tdb := NewUnmigratedTestDB(t)

	m, err := migration.New(tdb.SqlDB, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
	assert.False(t, tableExists(t, tdb, "cache_entries"))

	require.NoError(t, m.Up())
	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.True(t, tableExists(t, tdb, "cache_entries"))

	// Up is idempotent
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, tdb, "cache_entries"))

	require.NoError(t, m.Steps(1))
	assert.True(t, tableExists(t, tdb, "cache_entries"))

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, m.Force(1))
	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
