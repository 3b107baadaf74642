package db

import (
	"context"
	"fmt"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// AppendAuditEntry inserts one audit row. Seq is assigned by the caller
// (the dispatcher holds the per-execution sequence counter) so entries
// stay ordered even if two writers race on insert timing.
func (s *Store) AppendAuditEntry(ctx context.Context, e models.AuditLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log
		   (tenant_id, execution_id, agent_name, seq, event_type, model_name,
		    input_tokens, output_tokens, tool_provider, tool_operation,
		    content, error_message, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.TenantID, e.ExecutionID, e.AgentName, e.Seq, e.EventType, nullableString(e.ModelName),
		nullableInt(e.InputTokens), nullableInt(e.OutputTokens),
		nullableString(e.ToolProvider), nullableString(e.ToolOperation),
		nullableString(e.Content), nullableString(e.ErrorMessage), e.DurationMS, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db: append audit entry: %w", err)
	}
	return nil
}

// ListAuditByExecution returns every audit entry for an execution in
// sequence order, the full trace a debugging UI or support flow replays.
func (s *Store) ListAuditByExecution(ctx context.Context, tenantID, executionID string) ([]models.AuditLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tenant_id, execution_id, agent_name, seq, event_type,
		        COALESCE(model_name, ''), COALESCE(input_tokens, 0), COALESCE(output_tokens, 0),
		        COALESCE(tool_provider, ''), COALESCE(tool_operation, ''),
		        COALESCE(content, ''), COALESCE(error_message, ''), COALESCE(duration_ms, 0), created_at
		 FROM audit_log
		 WHERE tenant_id = $1 AND execution_id = $2
		 ORDER BY seq`,
		tenantID, executionID)
	if err != nil {
		return nil, fmt.Errorf("db: list audit entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.TenantID, &e.ExecutionID, &e.AgentName, &e.Seq, &e.EventType,
			&e.ModelName, &e.InputTokens, &e.OutputTokens, &e.ToolProvider, &e.ToolOperation,
			&e.Content, &e.ErrorMessage, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
