package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KV provides key-value access to the kv_entries table.
type KV struct {
	db *gorm.DB
}

// NewKV creates a new key-value repository.
func NewKV(db *gorm.DB) *KV {
	return &KV{db: db}
}

// Get returns the value stored under key.
func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	if err := kv.db.WithContext(ctx).First(&entry, "store_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return entry.Value, nil
}

// Set overwrites the value stored under key, creating it if needed.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value}
	err := kv.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

