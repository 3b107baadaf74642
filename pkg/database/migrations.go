package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// createGINIndexes creates full-text search GIN indexes not expressed in the
// plain-SQL migrations, mirroring the post-migration index-creation hook
// CreateGINIndexes was driven off an ent-generated SQL driver there; here
// it runs off the pgxpool.Pool directly since ent is dropped.
func createGINIndexes(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []struct {
		name string
		sql  string
	}{
		{
			name: "orchestrator_executions_input_gin",
			sql: `CREATE INDEX IF NOT EXISTS idx_orchestrator_executions_input_gin
			      ON orchestrator_executions USING gin(to_tsvector('english', input))`,
		},
		{
			name: "audit_log_content_gin",
			sql: `CREATE INDEX IF NOT EXISTS idx_audit_log_content_gin
			      ON audit_log USING gin(to_tsvector('english', COALESCE(content, '')))`,
		},
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s index: %w", stmt.name, err)
		}
	}
	return nil
}
