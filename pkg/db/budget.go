package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// CreateBudget inserts a new budget row for a tenant/user/window triple,
// the provisioning path an operator (or an admin API, not yet built) uses
// to opt a tenant into spend limiting; a tenant with no row is unbounded,
// per Gate.Check's degrade rule.
func (s *Store) CreateBudget(ctx context.Context, b models.Budget) error {
	var uid *string
	if b.UserID != "" {
		uid = &b.UserID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO budgets (id, tenant_id, user_id, window, consumed_units, limit_units, reset_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), b.TenantID, uid, b.Window, b.ConsumedUnits, b.LimitUnits, b.ResetAt)
	if err != nil {
		return fmt.Errorf("db: create budget: %w", err)
	}
	return nil
}

// GetBudget returns the budget row for a tenant/user/window triple. userID
// may be empty for a tenant-wide budget.
func (s *Store) GetBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow) (models.Budget, error) {
	var b models.Budget
	var uid *string
	err := s.pool.QueryRow(ctx,
		`SELECT tenant_id, user_id, window, consumed_units, limit_units, reset_at
		 FROM budgets WHERE tenant_id = $1 AND user_id IS NOT DISTINCT FROM NULLIF($2, '') AND window = $3`,
		tenantID, userID, window,
	).Scan(&b.TenantID, &uid, &b.Window, &b.ConsumedUnits, &b.LimitUnits, &b.ResetAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Budget{}, ErrNotFound
	}
	if err != nil {
		return models.Budget{}, fmt.Errorf("db: get budget: %w", err)
	}
	if uid != nil {
		b.UserID = *uid
	}
	return b, nil
}

// IncrementBudget atomically adds units to the consumed counter and reports
// the post-increment total, so the caller can decide whether the call that
// produced this usage should have been allowed (checked ahead of time via
// Budget.WouldExceed, but confirmed here against concurrent writers).
func (s *Store) IncrementBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow, units int64) (int64, error) {
	var consumed int64
	err := s.pool.QueryRow(ctx,
		`UPDATE budgets SET consumed_units = consumed_units + $4
		 WHERE tenant_id = $1 AND user_id IS NOT DISTINCT FROM NULLIF($2, '') AND window = $3
		 RETURNING consumed_units`,
		tenantID, userID, window, units,
	).Scan(&consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("db: increment budget: %w", err)
	}
	return consumed, nil
}

// ResetBudget zeroes a budget's consumed counter and advances reset_at, run
// by the periodic rollover sweep.
func (s *Store) ResetBudget(ctx context.Context, id string, nextResetAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets SET consumed_units = 0, reset_at = $2 WHERE id = $1`,
		id, nextResetAt)
	if err != nil {
		return fmt.Errorf("db: reset budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
