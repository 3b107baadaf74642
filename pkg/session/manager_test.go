package session

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
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
)

func newTestManager(t *testing.T) *Manager {
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

	store := db.New(client.Pool())
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{
		ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	return NewManager(store, WithTTL(time.Hour))
}

func TestGetOrCreate_NewSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.GetOrCreate(ctx, "t1", "u1", models.SourceChat, "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "t1", sess.TenantID)
}

func TestGetOrCreate_ResumesByThreadKey(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.GetOrCreate(ctx, "t1", "u1", models.SourceChat, "thread-42")
	require.NoError(t, err)

	second, err := m.GetOrCreate(ctx, "t1", "u1", models.SourceChat, "thread-42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAppendTurnAndSnapshot(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.GetOrCreate(ctx, "t1", "u1", models.SourceWeb, "")
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, m.AppendTurn(ctx, "t1", sess.ID, models.Turn{
			Role: "user", Text: "turn", Timestamp: time.Now(),
		}))
	}

	view, err := m.Snapshot(ctx, "t1", sess.ID, 0)
	require.NoError(t, err)
	assert.Len(t, view.Turns, defaultSnapshotTurns)
}

func TestGet_FallsBackToRelationalTierOnColdCache(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	sess, err := m.GetOrCreate(ctx, "t1", "u1", models.SourceCLI, "")
	require.NoError(t, err)

	m.cache.invalidate(sess.ID)

	got, err := m.Get(ctx, "t1", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}
