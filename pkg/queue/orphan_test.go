package queue

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

func TestSweeper_FailsStaleRunningExecution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	stuck := models.OrchestratorExecution{
		ID: "e1", TenantID: "t1", Status: models.ExecutionRunning, Input: "hi",
		StartedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateExecution(ctx, stuck))

	sweeper := NewSweeper(store, &config.QueueConfig{
		OrphanDetectionInterval: time.Hour,
		OrphanThreshold:         time.Minute,
	})
	sweeper.sweep(ctx)

	exec, err := store.GetExecution(ctx, "t1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Equal(t, "orphaned", exec.Error.Kind)

	lastScan, recovered := sweeper.Stats()
	assert.False(t, lastScan.IsZero())
	assert.Equal(t, 1, recovered)
}

func TestSweeper_LeavesRecentRunningExecutionAlone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	fresh := models.OrchestratorExecution{
		ID: "e2", TenantID: "t1", Status: models.ExecutionRunning, Input: "hi",
		StartedAt: time.Now(),
	}
	require.NoError(t, store.CreateExecution(ctx, fresh))

	sweeper := NewSweeper(store, &config.QueueConfig{
		OrphanDetectionInterval: time.Hour,
		OrphanThreshold:         time.Minute,
	})
	sweeper.sweep(ctx)

	exec, err := store.GetExecution(ctx, "t1", "e2")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionRunning, exec.Status)
}
