package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/quire/internal/cache"
	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/store"
)

const memoryCleanupInterval = 10 * time.Minute

// NewResearchCache builds the configured cache backend. It returns nil when
// caching is disabled. The sqlite and layered backends need a store.
func NewResearchCache(cfg model.CacheConfig, st *store.Store) (cache.Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ttl := cfg.ResearchTTL()

	switch cfg.Backend {
	case "memory":
		return cache.NewMemoryCache(ttl, memoryCleanupInterval), nil

	case "disk":
		dir, err := cacheDir(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return cache.NewDiskCache(dir, ttl), nil

	case "sqlite":
		if st == nil {
			return nil, fmt.Errorf("cache backend %q requires a store", cfg.Backend)
		}
		return st.Snapshots(), nil

	case "layered", "":
		if st == nil {
			return nil, fmt.Errorf("cache backend %q requires a store", "layered")
		}
		return cache.NewLayeredCache(cache.NewMemoryCache(ttl, memoryCleanupInterval), st.Snapshots(), ttl), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, sqlite, layered)", cfg.Backend)
	}
}

func cacheDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("find cache directory: %w", err)
	}
	return filepath.Join(base, "quire"), nil
}
