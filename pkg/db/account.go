package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// CreateAccount inserts a new provider account.
func (s *Store) CreateAccount(ctx context.Context, a models.ProviderAccount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO provider_accounts
		   (id, tenant_id, display_name, encrypted_secret, tier, status, circuit_state,
		    requests_per_minute, tokens_per_minute, input_tokens_per_minute)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.DisplayName, a.EncryptedSecret, a.Tier, a.Status, a.CircuitState,
		a.Capacity.RequestsPerMinute, a.Capacity.TokensPerMinute, a.Capacity.InputTokensPerMinute)
	if err != nil {
		return fmt.Errorf("db: create account: %w", err)
	}
	return nil
}

// ListUsableAccounts returns every non-disabled account for a tenant, for
// the account pool's selection policy to filter by circuit state and
// capacity headroom.
func (s *Store) ListUsableAccounts(ctx context.Context, tenantID string) ([]models.ProviderAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, display_name, encrypted_secret, tier, status, circuit_state,
		        consecutive_failures, cool_until, last_used_at,
		        requests_per_minute, tokens_per_minute, input_tokens_per_minute
		 FROM provider_accounts
		 WHERE tenant_id = $1 AND status != 'disabled'`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("db: list usable accounts: %w", err)
	}
	defer rows.Close()

	var out []models.ProviderAccount
	for rows.Next() {
		var a models.ProviderAccount
		var coolUntil, lastUsedAt *time.Time
		if err := rows.Scan(&a.ID, &a.TenantID, &a.DisplayName, &a.EncryptedSecret, &a.Tier,
			&a.Status, &a.CircuitState, &a.ConsecutiveFailures, &coolUntil, &lastUsedAt,
			&a.Capacity.RequestsPerMinute, &a.Capacity.TokensPerMinute, &a.Capacity.InputTokensPerMinute); err != nil {
			return nil, fmt.Errorf("db: scan account: %w", err)
		}
		if coolUntil != nil {
			a.CoolUntil = *coolUntil
		}
		if lastUsedAt != nil {
			a.LastUsedAt = *lastUsedAt
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordAccountSuccess clears the failure streak, closes the circuit, and
// stamps last-used-at after a successful call.
func (s *Store) RecordAccountSuccess(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE provider_accounts
		   SET consecutive_failures = 0, circuit_state = 'closed', cool_until = NULL, last_used_at = $2
		 WHERE id = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("db: record account success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordAccountFailure increments the failure streak and, when it crosses
// the breaker threshold, opens the circuit until coolUntil.
func (s *Store) RecordAccountFailure(ctx context.Context, id string, threshold int, coolUntil time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE provider_accounts
		   SET consecutive_failures = consecutive_failures + 1,
		       circuit_state = CASE WHEN consecutive_failures + 1 >= $2 THEN 'open' ELSE circuit_state END,
		       cool_until = CASE WHEN consecutive_failures + 1 >= $2 THEN $3 ELSE cool_until END
		 WHERE id = $1`,
		id, threshold, coolUntil)
	if err != nil {
		return fmt.Errorf("db: record account failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HalfOpenExpiredCircuits moves any account whose cool-down has elapsed
// from open to half-open, letting the pool's next pick be a trial request.
func (s *Store) HalfOpenExpiredCircuits(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE provider_accounts
		   SET circuit_state = 'half_open'
		 WHERE circuit_state = 'open' AND cool_until IS NOT NULL AND cool_until < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("db: half-open expired circuits: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetAccount returns a single account by id, scoped to tenant.
func (s *Store) GetAccount(ctx context.Context, tenantID, id string) (models.ProviderAccount, error) {
	var a models.ProviderAccount
	var coolUntil, lastUsedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, display_name, encrypted_secret, tier, status, circuit_state,
		        consecutive_failures, cool_until, last_used_at,
		        requests_per_minute, tokens_per_minute, input_tokens_per_minute
		 FROM provider_accounts WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&a.ID, &a.TenantID, &a.DisplayName, &a.EncryptedSecret, &a.Tier, &a.Status, &a.CircuitState,
		&a.ConsecutiveFailures, &coolUntil, &lastUsedAt,
		&a.Capacity.RequestsPerMinute, &a.Capacity.TokensPerMinute, &a.Capacity.InputTokensPerMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ProviderAccount{}, ErrNotFound
	}
	if err != nil {
		return models.ProviderAccount{}, fmt.Errorf("db: get account: %w", err)
	}
	if coolUntil != nil {
		a.CoolUntil = *coolUntil
	}
	if lastUsedAt != nil {
		a.LastUsedAt = *lastUsedAt
	}
	return a, nil
}
