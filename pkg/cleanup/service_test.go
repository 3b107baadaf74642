package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/database"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
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
		_ = testcontainers.TerminateContainer(pgContainer)
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	client, err := database.NewClient(ctx, database.Config{
		Host: host, Port: port.Int(), User: "test", Password: "test",
		Database: "test", SSLMode: "disable", MaxConns: 5, MinConns: 1,
		MaxConnLifetime: time.Hour, MaxConnIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return db.New(client.Pool())
}

func TestService_DeletesExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	expired := models.Session{
		ID: "s1", TenantID: "t1", Source: models.SourceWeb,
		CreatedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateSession(ctx, expired))

	svc := NewService(store, &config.RetentionConfig{
		SessionTTL: time.Hour, EventTTL: time.Hour, ExecutionRetentionDays: 90, CleanupInterval: time.Hour,
	})
	svc.runAll(ctx)

	_, err := store.GetSession(ctx, "t1", "s1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestService_PurgesOldProgressEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	_, err := store.AppendProgressEvent(ctx, "t1", models.EventCompleted, []byte(`{}`))
	require.NoError(t, err)

	svc := NewService(store, &config.RetentionConfig{
		SessionTTL: time.Hour, EventTTL: -time.Second, ExecutionRetentionDays: 90, CleanupInterval: time.Hour,
	})
	svc.runAll(ctx)

	events, err := store.ListProgressSince(ctx, "t1", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestService_SoftDeletesOldExecutions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	old := models.OrchestratorExecution{
		ID: "e1", TenantID: "t1", Status: models.ExecutionSuccess, Input: "hi",
		StartedAt: time.Now().AddDate(0, 0, -100),
	}
	require.NoError(t, store.CreateExecution(ctx, old))

	svc := NewService(store, &config.RetentionConfig{
		SessionTTL: time.Hour, EventTTL: time.Hour, ExecutionRetentionDays: 90, CleanupInterval: time.Hour,
	})
	svc.runAll(ctx)

	exec, err := store.GetExecution(ctx, "t1", "e1")
	require.NoError(t, err)
	assert.NotNil(t, exec.DeletedAt)
}
