package history

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheEntry struct {
	stats *ExecutionStats
	found bool
}

// CachedStore memoizes lookups of an underlying Store. Misses are cached
// too; errors are not.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, cacheEntry]
}

func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: expirable.NewLRU[string, cacheEntry](size, nil, ttl)}
}

func (s *CachedStore) GetStats(ctx context.Context, workflowID string) (*ExecutionStats, bool, error) {
	if entry, ok := s.cache.Get(workflowID); ok {
		if !entry.found {
			return nil, false, nil
		}
		return entry.stats.clone(), true, nil
	}
	stats, found, err := s.next.GetStats(ctx, workflowID)
	if err != nil {
		return nil, false, err
	}
	entry := cacheEntry{found: found}
	if found {
		entry.stats = stats.clone()
	}
	s.cache.Add(workflowID, entry)
	return stats, found, nil
}

// SaveStats writes through when the underlying store is a Writer and drops
// the cached entry.
func (s *CachedStore) SaveStats(ctx context.Context, stats *ExecutionStats) error {
	w, ok := s.next.(Writer)
	if !ok {
		return ErrReadOnly
	}
	if err := w.SaveStats(ctx, stats); err != nil {
		return err
	}
	s.cache.Remove(stats.WorkflowID)
	return nil
}
