package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through a fast front cache to a durable back cache
type LayeredCache struct {
	front      Cache
	back       Cache
	promoteTTL time.Duration
}

// NewLayeredCache creates a new layered cache. Entries found only in the
// back layer are promoted to the front with promoteTTL.
func NewLayeredCache(front, back Cache, promoteTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		front:      front,
		back:       back,
		promoteTTL: promoteTTL,
	}
}

// Get checks the front layer first, then the back layer
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.front.Get(key); found {
		return val, true
	}

	if val, found := c.back.Get(key); found {
		_ = c.front.Set(key, val, c.promoteTTL)
		return val, true
	}

	return nil, false
}

// Set writes the back layer first so the front never holds an entry the
// back layer failed to persist
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.back.Set(key, value, ttl); err != nil {
		return err
	}
	return c.front.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.front.Delete(key), c.back.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.front.Clear(), c.back.Clear())
}
