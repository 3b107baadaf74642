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

// CreateSession inserts a new session row.
func (s *Store) CreateSession(ctx context.Context, sess models.Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("db: marshal session state: %w", err)
	}
	historyJSON, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("db: marshal session history: %w", err)
	}
	metaJSON, err := json.Marshal(sess.Metadata)
	if err != nil {
		return fmt.Errorf("db: marshal session metadata: %w", err)
	}
	threadKey, _ := sess.ThreadKey()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions
		   (id, tenant_id, user_id, source, state, history, metadata, thread_key, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`,
		sess.ID, sess.TenantID, sess.UserID, sess.Source,
		stateJSON, historyJSON, metaJSON, threadKey, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db: create session: %w", err)
	}
	return nil
}

// GetSession returns a session by id, scoped to tenant.
func (s *Store) GetSession(ctx context.Context, tenantID, id string) (models.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, source, state, history, metadata, created_at, expires_at
		 FROM sessions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	return scanSession(row)
}

// GetSessionByThreadKey looks up a session by its external chat-thread key,
// scoped to tenant, for resuming a conversation from an inbound chat event.
func (s *Store) GetSessionByThreadKey(ctx context.Context, tenantID, threadKey string) (models.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, source, state, history, metadata, created_at, expires_at
		 FROM sessions WHERE tenant_id = $1 AND thread_key = $2`,
		tenantID, threadKey)
	return scanSession(row)
}

func scanSession(row pgx.Row) (models.Session, error) {
	var sess models.Session
	var stateJSON, historyJSON, metaJSON []byte
	err := row.Scan(&sess.ID, &sess.TenantID, &sess.UserID, &sess.Source,
		&stateJSON, &historyJSON, &metaJSON, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("db: scan session: %w", err)
	}
	if err := json.Unmarshal(stateJSON, &sess.State); err != nil {
		return models.Session{}, fmt.Errorf("db: unmarshal session state: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &sess.History); err != nil {
		return models.Session{}, fmt.Errorf("db: unmarshal session history: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &sess.Metadata); err != nil {
		return models.Session{}, fmt.Errorf("db: unmarshal session metadata: %w", err)
	}
	return sess, nil
}

// AppendTurn appends a turn to a session's history and refreshes its
// expiry, in one round trip. The dispatcher never mutates history directly;
// this is the only write path, matching the session manager's single-writer
// contract.
func (s *Store) AppendTurn(ctx context.Context, tenantID, id string, turn models.Turn, newExpiresAt time.Time) error {
	turnJSON, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("db: marshal turn: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions
		   SET history = history || $1::jsonb, expires_at = $2
		 WHERE tenant_id = $3 AND id = $4`,
		turnJSON, newExpiresAt, tenantID, id)
	if err != nil {
		return fmt.Errorf("db: append turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSessionState replaces a session's opaque state blob.
func (s *Store) UpdateSessionState(ctx context.Context, tenantID, id string, state map[string]any) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("db: marshal session state: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET state = $1 WHERE tenant_id = $2 AND id = $3`,
		stateJSON, tenantID, id)
	if err != nil {
		return fmt.Errorf("db: update session state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past expiry and reports how many
// were removed, for the retention/cleanup sweep.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db: delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
