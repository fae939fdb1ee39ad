package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntry is one row of the cache_entries table
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:255"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName implements gorm's Tabler
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// SQLStore keeps entries in a relational table through GORM
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore creates a store on db. The cache_entries table must exist;
// see AutoMigrate and the migrations directory.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// AutoMigrate creates the cache_entries table when missing. Used for
// sqlite, where golang-migrate is not run.
func (s *SQLStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&CacheEntry{}); err != nil {
		return fmt.Errorf("auto-migrate cache_entries: %w", err)
	}
	return nil
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry CacheEntry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("sql get: %w", err)
	}
	return []byte(entry.Value), nil
}

// Set implements Store as an upsert on cache_key
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	entry := CacheEntry{Key: key, Value: string(value), UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sql set: %w", err)
	}
	return nil
}

// Delete implements Store
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&CacheEntry{}).Error; err != nil {
		return fmt.Errorf("sql delete: %w", err)
	}
	return nil
}

// Name implements Store
func (s *SQLStore) Name() string {
	return "sql"
}

var _ Store = (*SQLStore)(nil)
