// Package cache stores serialized research bundles behind a small
// key-value interface with memory, disk, sqlite and layered backends.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "quire:v1:"

// ResearchKey generates the cache key of a book's research bundle.
// Book ids are hashed to keep keys short and free of separators.
func ResearchKey(bookID string) string {
	hash := sha256.Sum256([]byte(bookID))
	return keyPrefix + "research:" + hex.EncodeToString(hash[:])
}
