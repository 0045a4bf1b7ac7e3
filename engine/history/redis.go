package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/compozy/flowlint/engine/infra/cache"
)

const DefaultKeyPrefix = "flowlint:history:"

// RedisStore keeps one hash per workflow: field node_id, value NodeStats JSON.
type RedisStore struct {
	client cache.RedisInterface
	prefix string
}

func NewRedisStore(client cache.RedisInterface, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(workflowID string) string { return s.prefix + workflowID }

func (s *RedisStore) GetStats(ctx context.Context, workflowID string) (*ExecutionStats, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(workflowID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reading node stats: %w", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	stats := &ExecutionStats{WorkflowID: workflowID, Nodes: make(map[string]NodeStats, len(fields))}
	for nodeID, raw := range fields {
		var n NodeStats
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, false, fmt.Errorf("decoding stats for node %q: %w", nodeID, err)
		}
		n.NodeID = nodeID
		stats.Nodes[nodeID] = n
	}
	return stats, true, nil
}

func (s *RedisStore) SaveStats(ctx context.Context, stats *ExecutionStats) error {
	if err := validateStats(stats); err != nil {
		return err
	}
	if len(stats.Nodes) == 0 {
		return nil
	}
	values := make([]any, 0, len(stats.Nodes)*2)
	for _, id := range stats.NodeIDs() {
		n := stats.Nodes[id]
		n.NodeID = id
		raw, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encoding stats for node %q: %w", id, err)
		}
		values = append(values, id, string(raw))
	}
	if err := s.client.HSet(ctx, s.key(stats.WorkflowID), values...).Err(); err != nil {
		return fmt.Errorf("saving node stats: %w", err)
	}
	return nil
}
