package history

import (
	"context"
	"errors"
)

var ErrInvalidStats = errors.New("history: invalid execution stats")

// Store reads execution statistics. A workflow without recorded executions
// yields found=false and no error.
type Store interface {
	GetStats(ctx context.Context, workflowID string) (stats *ExecutionStats, found bool, err error)
}

// Writer records execution statistics, replacing existing node entries.
type Writer interface {
	SaveStats(ctx context.Context, stats *ExecutionStats) error
}

// NoopStore never has statistics.
type NoopStore struct{}

func (NoopStore) GetStats(context.Context, string) (*ExecutionStats, bool, error) {
	return nil, false, nil
}

func validateStats(stats *ExecutionStats) error {
	if stats == nil || stats.WorkflowID == "" {
		return ErrInvalidStats
	}
	return nil
}

var ErrReadOnly = errors.New("history: store is read-only")
