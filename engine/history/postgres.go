package history

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const DefaultTable = "node_execution_stats"

// DB is the pgx surface shared by *pgxpool.Pool and pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore reads node statistics from a table keyed by (workflow_id, node_id).
type PostgresStore struct {
	db    DB
	table string
}

func NewPostgresStore(db DB, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: table}
}

func (s *PostgresStore) GetStats(ctx context.Context, workflowID string) (*ExecutionStats, bool, error) {
	query, args, err := squirrel.Select("node_id", "executions", "avg_duration_ms", "updated_at").
		From(s.table).
		Where(squirrel.Eq{"workflow_id": workflowID}).
		OrderBy("node_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building stats query: %w", err)
	}
	var rows []NodeStats
	if err := pgxscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, false, fmt.Errorf("scanning node stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	stats := &ExecutionStats{WorkflowID: workflowID, Nodes: make(map[string]NodeStats, len(rows))}
	for _, row := range rows {
		stats.Nodes[row.NodeID] = row
	}
	return stats, true, nil
}

// SaveStats upserts every node entry in one statement.
func (s *PostgresStore) SaveStats(ctx context.Context, stats *ExecutionStats) error {
	if err := validateStats(stats); err != nil {
		return err
	}
	if len(stats.Nodes) == 0 {
		return nil
	}
	ids := stats.NodeIDs()
	ib := squirrel.Insert(s.table).
		Columns("workflow_id", "node_id", "executions", "avg_duration_ms", "updated_at").
		PlaceholderFormat(squirrel.Dollar)
	for _, id := range ids {
		n := stats.Nodes[id]
		ib = ib.Values(stats.WorkflowID, id, n.Executions, n.AverageDurationMs, squirrel.Expr("now()"))
	}
	query, args, err := ib.Suffix(
		"ON CONFLICT (workflow_id, node_id) DO UPDATE SET " +
			"executions = EXCLUDED.executions, " +
			"avg_duration_ms = EXCLUDED.avg_duration_ms, " +
			"updated_at = EXCLUDED.updated_at",
	).ToSql()
	if err != nil {
		return fmt.Errorf("building stats upsert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("saving node stats: %w", err)
	}
	return nil
}
