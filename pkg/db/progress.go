package db

import (
	"context"
	"fmt"
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// AppendProgressEvent inserts a progress event and returns its assigned,
// per-tenant-monotonic id — the cursor replay and live subscribers key off.
func (s *Store) AppendProgressEvent(ctx context.Context, tenantID string, eventType models.ProgressEventType, payload []byte) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO progress_events (tenant_id, event_type, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		tenantID, eventType, payload,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db: append progress event: %w", err)
	}
	return id, nil
}

// ListProgressSince returns events for a tenant strictly after afterID, in
// order, bounded by limit — the replay path for a reconnecting subscriber.
func (s *Store) ListProgressSince(ctx context.Context, tenantID string, afterID int64, limit int) ([]models.ProgressEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_type, payload, created_at
		 FROM progress_events
		 WHERE tenant_id = $1 AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		tenantID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list progress events: %w", err)
	}
	defer rows.Close()

	var out []models.ProgressEvent
	for rows.Next() {
		var e models.ProgressEvent
		e.TenantID = tenantID
		if err := rows.Scan(&e.ID, &e.Type, &e.Payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("db: scan progress event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteProgressEventsOlderThan purges progress_events rows created before
// cutoff, enforcing the per-tenant stream's rolling TTL (SPEC_FULL.md §4.7
// names a default of ~1 hour). Run by the retention sweep, not per-request.
func (s *Store) DeleteProgressEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM progress_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db: delete old progress events: %w", err)
	}
	return tag.RowsAffected(), nil
}
