package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/orchestrator/pkg/apperrors"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
)

type fakeStore struct {
	budgets    map[string]models.Budget // key: tenantID+"/"+userID
	incErr     error
	incCalls   []string
}

func key(tenantID, userID string) string { return tenantID + "/" + userID }

func (f *fakeStore) GetBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow) (models.Budget, error) {
	b, ok := f.budgets[key(tenantID, userID)]
	if !ok {
		return models.Budget{}, db.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) IncrementBudget(ctx context.Context, tenantID, userID string, window models.BudgetWindow, units int64) (int64, error) {
	f.incCalls = append(f.incCalls, key(tenantID, userID))
	if f.incErr != nil {
		return 0, f.incErr
	}
	b := f.budgets[key(tenantID, userID)]
	b.ConsumedUnits += units
	f.budgets[key(tenantID, userID)] = b
	return b.ConsumedUnits, nil
}

func TestGate_Check_AllowsUnconfiguredTenant(t *testing.T) {
	g := New(&fakeStore{budgets: map[string]models.Budget{}})
	require.NoError(t, g.Check(context.Background(), "t1", "", "corr-1"))
}

func TestGate_Check_AllowsWithinLimit(t *testing.T) {
	store := &fakeStore{budgets: map[string]models.Budget{
		key("t1", ""): {TenantID: "t1", Window: models.WindowMonthly, ConsumedUnits: 5, LimitUnits: 100},
	}}
	g := New(store)
	require.NoError(t, g.Check(context.Background(), "t1", "", "corr-1"))
}

func TestGate_Check_RefusesExhaustedTenantBudget(t *testing.T) {
	store := &fakeStore{budgets: map[string]models.Budget{
		key("t1", ""): {TenantID: "t1", Window: models.WindowMonthly, ConsumedUnits: 100, LimitUnits: 100},
	}}
	g := New(store)

	err := g.Check(context.Background(), "t1", "", "corr-1")
	require.Error(t, err)
	typed, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindBudgetExhausted, typed.Kind)
}

func TestGate_Check_RefusesExhaustedUserBudgetEvenWithTenantRoom(t *testing.T) {
	store := &fakeStore{budgets: map[string]models.Budget{
		key("t1", ""):  {TenantID: "t1", Window: models.WindowMonthly, ConsumedUnits: 5, LimitUnits: 1000},
		key("t1", "u1"): {TenantID: "t1", UserID: "u1", Window: models.WindowMonthly, ConsumedUnits: 10, LimitUnits: 10},
	}}
	g := New(store)

	err := g.Check(context.Background(), "t1", "u1", "corr-1")
	require.Error(t, err)
	typed, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindBudgetExhausted, typed.Kind)
}

func TestGate_Record_ChargesTenantAndUser(t *testing.T) {
	store := &fakeStore{budgets: map[string]models.Budget{}}
	g := New(store)

	require.NoError(t, g.Record(context.Background(), "t1", "u1", 3))
	assert.ElementsMatch(t, []string{key("t1", ""), key("t1", "u1")}, store.incCalls)
}

func TestGate_Record_TenantOnlyWhenNoUser(t *testing.T) {
	store := &fakeStore{budgets: map[string]models.Budget{}}
	g := New(store)

	require.NoError(t, g.Record(context.Background(), "t1", "", 3))
	assert.Equal(t, []string{key("t1", "")}, store.incCalls)
}
