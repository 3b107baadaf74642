// Package budget is the Budget Gate (SPEC_FULL.md §4.4 step 2, testable
// property #8): the dispatcher consults it before account selection and
// refuses the request outright when the tenant or user has exhausted their
// rolling-window spend cap, so an over-budget request never reaches the
// Account Pool or an LLM provider at all.
//
// Grounded on pkg/models.Budget/pkg/db's storage (already built) the same
// way pkg/accountpool.Pool is grounded on pkg/db's account/circuit-breaker
// storage: a thin decision layer over hand-written repository queries, no
// new persistence of its own.
package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskorbit/orchestrator/pkg/apperrors"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
)

// Store is the subset of *db.Store the gate needs, narrowed for testing.
type Store interface {
	GetBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow) (models.Budget, error)
	IncrementBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow, units int64) (int64, error)
}

// Gate checks and records spend against tenant and per-user budgets.
type Gate struct {
	store Store
}

// New builds a Gate over store.
func New(store Store) *Gate {
	return &Gate{store: store}
}

// projectedUnits is the conservative per-call cost charged against a
// budget before the actual usage is known — the dispatcher reconciles the
// real count afterward via Record. One unit per call keeps the gate
// independent of any single provider's token-pricing model.
const projectedUnits = 1

// Check reports whether a new dispatch for tenantID (and, if userID is
// non-empty, that user individually) may proceed. A tenant with no budget
// row configured is treated as unbounded, mirroring pkg/accountpool's
// degrade-to-legacy behavior for tenants with no configured accounts: the
// gate only restricts spend where an operator has opted in by creating a
// budget row.
func (g *Gate) Check(ctx context.Context, tenantID, userID string, correlationID string) error {
	if err := g.checkOne(ctx, tenantID, "", correlationID); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	return g.checkOne(ctx, tenantID, userID, correlationID)
}

func (g *Gate) checkOne(ctx context.Context, tenantID, userID, correlationID string) error {
	b, err := g.store.GetBudget(ctx, tenantID, userID, models.WindowMonthly)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, correlationID, fmt.Errorf("budget: load budget: %w", err))
	}
	if b.WouldExceed(projectedUnits) {
		scope := "tenant"
		if userID != "" {
			scope = "user"
		}
		return apperrors.New(apperrors.KindBudgetExhausted, correlationID,
			fmt.Sprintf("%s monthly budget exhausted (%d/%d units consumed)", scope, b.ConsumedUnits, b.LimitUnits))
	}
	return nil
}

// Record charges the actual consumed units against tenantID's (and, if set,
// userID's) monthly budget after a dispatch completes. Errors are logged by
// the caller, not fatal to the request — the gate already allowed the call
// to run, so a bookkeeping failure here must not fail a completed response.
func (g *Gate) Record(ctx context.Context, tenantID, userID string, units int64) error {
	if _, err := g.store.IncrementBudget(ctx, tenantID, "", models.WindowMonthly, units); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("budget: record tenant spend: %w", err)
	}
	if userID == "" {
		return nil
	}
	if _, err := g.store.IncrementBudget(ctx, tenantID, userID, models.WindowMonthly, units); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("budget: record user spend: %w", err)
	}
	return nil
}
