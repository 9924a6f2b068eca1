package store

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	defaultMemorySize = 10_000
	defaultMemoryTTL  = 24 * time.Hour
)

type memoryEntry struct {
	ExpiresAt time.Time
	Data      []byte
}

// MemoryStore is a bounded in-process blob store. The otter expiry caps
// every entry at maxTTL; shorter per-write TTLs are checked on read.
type MemoryStore struct {
	cache *otter.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most size entries.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultMemorySize
	}
	if maxTTL <= 0 {
		maxTTL = defaultMemoryTTL
	}
	return &MemoryStore{
		cache: otter.Must(&otter.Options[string, memoryEntry]{
			MaximumSize:      size,
			ExpiryCalculator: otter.ExpiryWriting[string, memoryEntry](maxTTL),
		}),
		now: time.Now,
	}
}

// Get implements visibility.Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.cache.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		s.cache.Invalidate(key)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set implements visibility.Store. A zero ttl keeps the entry until the
// store-wide limit.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{Data: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	s.cache.Set(key, entry)
	return nil
}

// Len returns the approximate number of entries.
func (s *MemoryStore) Len() int {
	return s.cache.EstimatedSize()
}
