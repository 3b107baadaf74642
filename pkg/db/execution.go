package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// CreateExecution inserts the audit row for a single inbound dispatch.
func (s *Store) CreateExecution(ctx context.Context, e models.OrchestratorExecution) error {
	skillsJSON, err := json.Marshal(e.Skills)
	if err != nil {
		return fmt.Errorf("db: marshal skills: %w", err)
	}
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("db: marshal execution metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO orchestrator_executions
		   (id, tenant_id, user_id, session_id, category, skills, status, input, metadata, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.UserID, e.SessionID, e.Category, skillsJSON, e.Status, e.Input, metaJSON, e.StartedAt)
	if err != nil {
		return fmt.Errorf("db: create execution: %w", err)
	}
	return nil
}

// GetExecution returns an execution by id, scoped to tenant. Soft-deleted
// rows are still returned — the audit trail stays lookup-able by id; only
// the history listing hides them.
func (s *Store) GetExecution(ctx context.Context, tenantID, id string) (models.OrchestratorExecution, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, session_id, category, skills, status, input,
		        COALESCE(output, ''), error, metadata, started_at, COALESCE(duration_ms, 0), deleted_at
		 FROM orchestrator_executions
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	return scanExecution(row)
}

func scanExecution(row pgx.Row) (models.OrchestratorExecution, error) {
	var e models.OrchestratorExecution
	var skillsJSON, metaJSON []byte
	var errJSON *string
	err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.SessionID, &e.Category, &skillsJSON,
		&e.Status, &e.Input, &e.Output, &errJSON, &metaJSON, &e.StartedAt, &e.DurationMS, &e.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OrchestratorExecution{}, ErrNotFound
	}
	if err != nil {
		return models.OrchestratorExecution{}, fmt.Errorf("db: scan execution: %w", err)
	}
	if err := json.Unmarshal(skillsJSON, &e.Skills); err != nil {
		return models.OrchestratorExecution{}, fmt.Errorf("db: unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
		return models.OrchestratorExecution{}, fmt.Errorf("db: unmarshal execution metadata: %w", err)
	}
	if errJSON != nil {
		var detail models.ErrorDetail
		if err := json.Unmarshal([]byte(*errJSON), &detail); err == nil {
			e.Error = &detail
		}
	}
	return e, nil
}

// UpdateExecutionResult finalizes an execution's terminal status, output,
// error detail, and duration in one statement.
func (s *Store) UpdateExecutionResult(ctx context.Context, e models.OrchestratorExecution) error {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("db: marshal execution metadata: %w", err)
	}
	var errJSON []byte
	if e.Error != nil {
		errJSON, err = json.Marshal(e.Error)
		if err != nil {
			return fmt.Errorf("db: marshal execution error: %w", err)
		}
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE orchestrator_executions
		   SET status = $1, output = $2, error = $3, metadata = $4, duration_ms = $5,
		       claimed_by = NULL, claimed_at = NULL
		 WHERE tenant_id = $6 AND id = $7`,
		e.Status, e.Output, nullableJSON(errJSON), metaJSON, e.DurationMS, e.TenantID, e.ID)
	if err != nil {
		return fmt.Errorf("db: update execution result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// ClaimPendingExecutions atomically claims up to limit pending executions
// for workerID, skipping rows another worker already holds, so concurrent
// workers never double-process the same execution.
func (s *Store) ClaimPendingExecutions(ctx context.Context, workerID string, limit int) ([]models.OrchestratorExecution, error) {
	rows, err := s.pool.Query(ctx,
		`WITH claimed AS (
		   SELECT id FROM orchestrator_executions
		   WHERE status = 'pending' AND deleted_at IS NULL
		   ORDER BY started_at
		   LIMIT $2
		   FOR UPDATE SKIP LOCKED
		 )
		 UPDATE orchestrator_executions e
		   SET status = 'running', claimed_by = $1, claimed_at = now()
		 FROM claimed
		 WHERE e.id = claimed.id
		 RETURNING e.id, e.tenant_id, e.user_id, e.session_id, e.category, e.skills, e.status,
		           e.input, COALESCE(e.output, ''), e.error, e.metadata, e.started_at, COALESCE(e.duration_ms, 0), e.deleted_at`,
		workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("db: claim pending executions: %w", err)
	}
	defer rows.Close()

	var out []models.OrchestratorExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListExecutionsBySession returns the execution history for a session,
// newest first.
func (s *Store) ListExecutionsBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]models.OrchestratorExecution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, user_id, session_id, category, skills, status, input,
		        COALESCE(output, ''), error, metadata, started_at, COALESCE(duration_ms, 0), deleted_at
		 FROM orchestrator_executions
		 WHERE tenant_id = $1 AND session_id = $2 AND deleted_at IS NULL
		 ORDER BY started_at DESC
		 LIMIT $3`,
		tenantID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list executions by session: %w", err)
	}
	defer rows.Close()

	var out []models.OrchestratorExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkOrphanedExecutionsFailed fails any execution still "running" whose
// started_at is older than cutoff — the process that was running it crashed
// before reaching a terminal status. Returns the ids marked, for logging.
func (s *Store) MarkOrphanedExecutionsFailed(ctx context.Context, cutoff time.Time, message string) ([]string, error) {
	errJSON, err := json.Marshal(models.ErrorDetail{Kind: "orphaned", Message: message})
	if err != nil {
		return nil, fmt.Errorf("db: marshal orphan error detail: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`UPDATE orchestrator_executions
		   SET status = 'failed', error = $1, claimed_by = NULL, claimed_at = NULL
		 WHERE status = 'running' AND started_at < $2 AND deleted_at IS NULL
		 RETURNING id`,
		string(errJSON), cutoff)
	if err != nil {
		return nil, fmt.Errorf("db: mark orphaned executions failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db: scan orphaned execution id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SoftDeleteExecutionsOlderThan marks executions past the retention window
// deleted without removing the audit row outright, for the retention sweep.
func (s *Store) SoftDeleteExecutionsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orchestrator_executions SET deleted_at = now()
		 WHERE started_at < $1 AND deleted_at IS NULL`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("db: soft delete executions: %w", err)
	}
	return tag.RowsAffected(), nil
}
