package history

import (
	"context"
	"sync"
)

// MemoryStore keeps statistics in process memory. Returned values are copies.
type MemoryStore struct {
	mu    sync.RWMutex
	stats map[string]*ExecutionStats
}

func NewMemoryStore(seed ...*ExecutionStats) *MemoryStore {
	s := &MemoryStore{stats: make(map[string]*ExecutionStats)}
	for _, st := range seed {
		if st != nil && st.WorkflowID != "" {
			s.stats[st.WorkflowID] = st.clone()
		}
	}
	return s
}

func (s *MemoryStore) GetStats(ctx context.Context, workflowID string) (*ExecutionStats, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[workflowID]
	if !ok || len(st.Nodes) == 0 {
		return nil, false, nil
	}
	return st.clone(), true, nil
}

func (s *MemoryStore) SaveStats(ctx context.Context, stats *ExecutionStats) error {
	if err := validateStats(stats); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.stats[stats.WorkflowID]
	if !ok {
		existing = &ExecutionStats{WorkflowID: stats.WorkflowID, Nodes: map[string]NodeStats{}}
		s.stats[stats.WorkflowID] = existing
	}
	for id, n := range stats.Nodes {
		n.NodeID = id
		existing.Nodes[id] = n
	}
	return nil
}
