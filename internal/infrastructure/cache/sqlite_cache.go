package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"revpipe/internal/errs"
	"revpipe/internal/infrastructure/persistence/sqlite/model"
	"revpipe/internal/ports"
)

// SQLiteCache backs the ports.Cache capability with the status_kv table.
// Used to keep the last good queue snapshot around for the dashboard.
type SQLiteCache struct {
	db *gorm.DB
}

var _ ports.Cache = (*SQLiteCache)(nil)

func NewSQLiteCache(db *gorm.DB) *SQLiteCache {
	return &SQLiteCache{db: db}
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var row model.StatusKV
	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query cache by key")
	}

	if expired(row.ExpiresAt) {
		// Lazy expiry; the next Set overwrites the row anyway.
		_ = c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.StatusKV{}).Error
		return "", false, nil
	}

	return row.Value, true, nil
}

func expired(expiresAt string) bool {
	if expiresAt == "" {
		return false
	}
	deadline, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		// Unparseable deadline reads as expired rather than immortal.
		return true
	}
	return time.Now().After(deadline)
}

// Set upserts a key. A positive ttl bounds how long Get serves the entry;
// ttl <= 0 means it never expires.
func (c *SQLiteCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	now := time.Now().UTC()
	row := model.StatusKV{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: now.Format(time.RFC3339Nano),
	}
	if ttl > 0 {
		row.ExpiresAt = now.Add(ttl).Format(time.RFC3339Nano)
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
			"expires_at": row.ExpiresAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert cache key")
	}

	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.StatusKV{}).Error; err != nil {
		return errs.Wrap(err, "delete cache key")
	}
	return nil
}
