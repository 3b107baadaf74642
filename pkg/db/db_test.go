package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskorbit/orchestrator/pkg/database"
	"github.com/taskorbit/orchestrator/pkg/models"
)

// newTestStore spins up a real Postgres, runs the embedded migrations, and
// returns a Store ready for repository tests.
func newTestStore(t *testing.T) *Store {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	client, err := database.NewClient(ctx, database.Config{
		Host: host, Port: port.Int(), User: "test", Password: "test",
		Database: "test", SSLMode: "disable", MaxConns: 10, MinConns: 1,
		MaxConnLifetime: time.Hour, MaxConnIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return New(client.Pool())
}

func TestTenantAndMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tenant := models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", Plan: "standard", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateTenant(ctx, tenant))

	got, err := store.GetTenantBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	require.NoError(t, store.CreateUser(ctx, models.User{ID: "u1", Email: "a@acme.test", CreatedAt: now}))
	require.NoError(t, store.AddMembership(ctx, models.Membership{TenantID: "t1", UserID: "u1", Role: models.RoleOwner, CreatedAt: now}))

	role, err := store.MembershipRole(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	_, err = store.MembershipRole(ctx, "t1", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now}))

	sess := models.Session{
		ID: "s1", TenantID: "t1", UserID: "u1", Source: models.SourceChat,
		State: map[string]any{"step": 1}, Metadata: map[string]any{"thread_key": "thread-abc"},
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.CreateSession(ctx, sess))

	got, err := store.GetSessionByThreadKey(ctx, "t1", "thread-abc")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Empty(t, got.History)

	turn := models.Turn{Role: "user", Text: "hello", Timestamp: now}
	require.NoError(t, store.AppendTurn(ctx, "t1", "s1", turn, now.Add(2*time.Hour)))

	got, err = store.GetSession(ctx, "t1", "s1")
	require.NoError(t, err)
	require.Len(t, got.History, 1)
	assert.Equal(t, "hello", got.History[0].Text)
}

func TestExecutionClaiming(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.CreateSession(ctx, models.Session{
		ID: "s1", TenantID: "t1", UserID: "u1", Source: models.SourceWeb,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, store.CreateExecution(ctx, models.OrchestratorExecution{
		ID: "e1", TenantID: "t1", UserID: "u1", SessionID: "s1",
		Category: "quick", Status: models.ExecutionPending, Input: "do the thing", StartedAt: now,
	}))

	claimed, err := store.ClaimPendingExecutions(ctx, "worker-1", 5)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, models.ExecutionRunning, claimed[0].Status)

	again, err := store.ClaimPendingExecutions(ctx, "worker-2", 5)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, store.UpdateExecutionResult(ctx, models.OrchestratorExecution{
		ID: "e1", TenantID: "t1", Status: models.ExecutionSuccess, Output: "done", DurationMS: 42,
	}))

	got, err := store.GetExecution(ctx, "t1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionSuccess, got.Status)
	assert.Equal(t, "done", got.Output)
}
