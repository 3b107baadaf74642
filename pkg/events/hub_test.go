package events

import (
	"context"
	"encoding/json"
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
	"github.com/taskorbit/orchestrator/pkg/pgnotify"
)

func newTestHub(t *testing.T) *Hub {
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

	cfg := database.Config{
		Host: host, Port: port.Int(), User: "test", Password: "test",
		Database: "test", SSLMode: "disable", MaxConns: 10, MinConns: 1,
		MaxConnLifetime: time.Hour, MaxConnIdleTime: 15 * time.Minute,
	}
	client, err := database.NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	store := db.New(client.Pool())
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{
		ID: "t1", Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	listener := pgnotify.New(cfg.ConnString())
	require.NoError(t, listener.Start(ctx))
	t.Cleanup(func() { listener.Stop(context.Background()) })

	return NewHub(store, listener)
}

func TestHub_SubscribeReceivesPublishedEvent(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	ch, unsubscribe, err := hub.Subscribe(ctx, "t1")
	require.NoError(t, err)
	defer unsubscribe()

	_, err = hub.Publish(ctx, "t1", models.EventRunning, map[string]string{"agent": "triage"})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, models.EventRunning, ev.Type)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, "triage", payload["agent"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestHub_SubscribeDoesNotSeeOtherTenantsEvents(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()
	require.NoError(t, hub.store.CreateTenant(ctx, models.Tenant{
		ID: "t2", Name: "Other", Slug: "other", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	ch, unsubscribe, err := hub.Subscribe(ctx, "t1")
	require.NoError(t, err)
	defer unsubscribe()

	_, err = hub.Publish(ctx, "t2", models.EventRunning, map[string]string{"agent": "triage"})
	require.NoError(t, err)
	_, err = hub.Publish(ctx, "t1", models.EventCompleted, map[string]string{"agent": "triage"})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, models.EventCompleted, ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published event")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event leaked from other tenant: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHub_Replay(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	first, err := hub.Publish(ctx, "t1", models.EventQueued, map[string]string{"step": "1"})
	require.NoError(t, err)
	_, err = hub.Publish(ctx, "t1", models.EventRunning, map[string]string{"step": "2"})
	require.NoError(t, err)

	replayed, err := hub.Replay(ctx, "t1", first.ID, 10)
	require.NoError(t, err)
	require.Len(t, replayed, 1)
	assert.Equal(t, models.EventRunning, replayed[0].Type)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	ch, unsubscribe, err := hub.Subscribe(ctx, "t1")
	require.NoError(t, err)
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}
