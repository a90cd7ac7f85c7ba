/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acronis/go-cachekit/log"
)

// Record is a single key/value row of the SQL store.
type Record struct {
	Key       string `gorm:"column:cache_key;primaryKey;size:255"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the table name used by gorm.
func (Record) TableName() string {
	return "cache_records"
}

// SQLStore is a Store backed by an SQLite database (pure Go driver, no cgo).
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (or creates) the SQLite database at dsn and migrates the schema.
func OpenSQLStore(dsn string, logger log.FieldLogger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dsn, err)
	}
	if err = db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Fetch returns the value stored by the key or ErrNotFound.
func (s *SQLStore) Fetch(ctx context.Context, key string) (string, error) {
	var rec Record
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("select record %q: %w", key, err)
	}
	return rec.Value, nil
}

// Put inserts or updates the record.
func (s *SQLStore) Put(ctx context.Context, key, value string) error {
	return s.Seed(ctx, map[string]string{key: value})
}

// Seed upserts all pairs of data in a single transaction.
func (s *SQLStore) Seed(ctx context.Context, data map[string]string) error {
	if len(data) == 0 {
		return nil
	}
	records := make([]Record, 0, len(data))
	for _, k := range SortedKeys(data) {
		records = append(records, Record{Key: k, Value: data[k]})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	return nil
}

// Count returns the number of records.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
