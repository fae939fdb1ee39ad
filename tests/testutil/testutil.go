// Package testutil provides shared fixtures for the stats backend tests:
// fake warehouse and identity-graph servers, a sqlmock-backed GORM
// connection and helpers for the JSON response envelope.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB is a postgres-dialect GORM connection backed by sqlmock
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a MockDB. The connection is closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: db, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet fails the test when a queued expectation was not used
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}
