package store

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// SnapshotCache is the sqlite cache backend. It satisfies cache.Cache so
// research bundles can live in the same database as the cards.
type SnapshotCache struct {
	store *Store
	now   func() time.Time
}

// Snapshots returns the store's cache backend
func (s *Store) Snapshots() *SnapshotCache {
	return &SnapshotCache{store: s, now: time.Now}
}

func (c *SnapshotCache) Get(key string) ([]byte, bool) {
	var rec SnapshotRecord
	err := c.store.db.WithContext(context.Background()).
		Where("cache_key = ?", key).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		c.store.log.Warn("snapshot read failed", "key", key, "error", err)
		return nil, false
	}
	if rec.CacheKey == "" {
		return nil, false
	}
	if rec.ExpiresAt != nil && c.now().After(*rec.ExpiresAt) {
		return nil, false
	}
	return []byte(rec.Payload), true
}

// Set replaces the entry for key. A non-positive ttl never expires.
func (c *SnapshotCache) Set(key string, value []byte, ttl time.Duration) error {
	rec := SnapshotRecord{
		CacheKey: key,
		Payload:  datatypes.JSON(value),
	}
	if ttl > 0 {
		exp := c.now().Add(ttl)
		rec.ExpiresAt = &exp
	}
	return c.store.db.WithContext(context.Background()).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
}

func (c *SnapshotCache) Delete(key string) error {
	return c.store.db.WithContext(context.Background()).
		Where("cache_key = ?", key).
		Delete(&SnapshotRecord{}).Error
}

func (c *SnapshotCache) Clear() error {
	return c.store.db.WithContext(context.Background()).
		Where("1 = 1").
		Delete(&SnapshotRecord{}).Error
}
