package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/research"
)

// ResearchStore caches whole research bundles per book. Entries are
// replaced wholesale; the last writer wins.
type ResearchStore struct {
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewResearchStore creates a research store over any cache backend
func NewResearchStore(c Cache, ttl time.Duration) *ResearchStore {
	return &ResearchStore{cache: c, ttl: ttl, now: time.Now}
}

// WithClock replaces the freshness clock
func (s *ResearchStore) WithClock(now func() time.Time) *ResearchStore {
	s.now = now
	return s
}

// Get returns the cached research for a book while it is still fresh.
// Unreadable entries are treated as missing.
func (s *ResearchStore) Get(bookID string) (*model.Research, bool) {
	data, ok := s.cache.Get(ResearchKey(bookID))
	if !ok {
		return nil, false
	}

	var r model.Research
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	if !research.IsFresh(r.AnalyzedAt, s.now(), s.ttl) {
		return nil, false
	}
	return &r, true
}

// Put overwrites the cached research for the bundle's book
func (s *ResearchStore) Put(r *model.Research) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal research: %w", err)
	}
	if err := s.cache.Set(ResearchKey(r.BookID), data, s.ttl); err != nil {
		return fmt.Errorf("cache research: %w", err)
	}
	return nil
}

// Invalidate drops a book's cached research
func (s *ResearchStore) Invalidate(bookID string) error {
	return s.cache.Delete(ResearchKey(bookID))
}
