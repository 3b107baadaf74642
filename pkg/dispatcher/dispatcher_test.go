package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskorbit/orchestrator/pkg/accountpool"
	"github.com/taskorbit/orchestrator/pkg/agent"
	"github.com/taskorbit/orchestrator/pkg/analyzer"
	"github.com/taskorbit/orchestrator/pkg/apperrors"
	"github.com/taskorbit/orchestrator/pkg/budget"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/database"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
	"github.com/taskorbit/orchestrator/pkg/masking"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/router"
	"github.com/taskorbit/orchestrator/pkg/session"
	"github.com/taskorbit/orchestrator/pkg/toolkit"
)

// stubLLMClient returns a fixed text response, bypassing any real provider
// call so the dispatcher's wiring can be exercised deterministically.
type stubLLMClient struct {
	text string
}

func (c *stubLLMClient) Generate(ctx context.Context, in *llmclient.GenerateInput) (<-chan llmclient.Chunk, error) {
	ch := make(chan llmclient.Chunk, 2)
	ch <- &llmclient.TextChunk{Content: c.text}
	ch <- &llmclient.UsageChunk{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	close(ch)
	return ch, nil
}

func (c *stubLLMClient) Close() error { return nil }

func newTestDispatcher(t *testing.T, llmText string) (*Dispatcher, *db.Store, string) {
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
	const tenantID = "t1"
	require.NoError(t, store.CreateTenant(ctx, models.Tenant{
		ID: tenantID, Name: "Acme", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	categories := config.NewCategoryRegistry(map[config.Category]*config.CategoryConfig{
		config.CategoryQuick: {LLMProvider: "default", Temperature: 0.1, CostClass: "low", Deadline: 10 * time.Second},
	})
	agents := config.NewAgentRegistry(map[string]*config.AgentConfig{
		"writing": {Scope: "writing", Description: "general purpose"},
	})
	providers := config.NewLLMProviderRegistry(map[string]*config.LLMProviderConfig{
		"default": {Type: config.LLMProviderTypeOpenAICompat, Model: "test-model", BaseURL: "http://example.invalid", APIKeyEnv: "TEST_LLM_KEY", MaxToolResultTokens: 2000},
	})
	timing := &config.TimingTable{Default: 10 * time.Second, Deadlines: map[config.Category]time.Duration{config.CategoryQuick: 10 * time.Second}}

	llm := &stubLLMClient{text: llmText}
	pool := accountpool.New(store, config.DefaultAccountPoolConfig(), nil)
	runtime := agent.NewRuntime(agents, providers, llm, pool, toolkit.NewRegistry(), store)

	sessions := session.NewManager(store)
	gate := budget.New(store)
	az := analyzer.New(nil, nil, "") // nil LLM: always falls back to the keyword lexicon
	rt := router.New(categories, agents)

	return New(sessions, gate, az, rt, runtime, categories, timing, store, nil, "writing", masking.NewService("secrets")), store, tenantID
}

func TestDispatch_HappyPath_PersistsSuccessfulExecution(t *testing.T) {
	d, store, tenantID := newTestDispatcher(t, "The answer is 42.\n\nCONFIDENCE: 0.9")
	ctx := context.Background()

	outcome, err := d.Dispatch(ctx, Request{TenantID: tenantID, UserID: "u1", Utterance: "what is the answer?", Source: "web"})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExecutionSuccess), outcome.Status)
	assert.Contains(t, outcome.Result.PrimaryText, "42")
	assert.NotEmpty(t, outcome.ExecutionID)
	assert.NotEmpty(t, outcome.SessionID)

	exec, err := store.GetExecution(ctx, tenantID, outcome.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionSuccess, exec.Status)
	assert.Equal(t, "what is the answer?", exec.Input)

	sess, err := store.GetSession(ctx, tenantID, outcome.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	assert.Equal(t, "user", sess.History[0].Role)
	assert.Equal(t, "agent", sess.History[1].Role)
}

func TestDispatch_RejectsEmptyUtterance(t *testing.T) {
	d, _, tenantID := newTestDispatcher(t, "irrelevant")
	_, err := d.Dispatch(context.Background(), Request{TenantID: tenantID, UserID: "u1", Utterance: ""})
	require.Error(t, err)
	typed, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, typed.Kind)
}

func TestDispatch_RefusesOverBudgetTenant(t *testing.T) {
	d, store, tenantID := newTestDispatcher(t, "irrelevant")
	ctx := context.Background()

	require.NoError(t, store.CreateBudget(ctx, models.Budget{
		TenantID: tenantID, Window: models.WindowMonthly, ConsumedUnits: 100, LimitUnits: 100, ResetAt: time.Now().Add(24 * time.Hour),
	}))

	outcome, err := d.Dispatch(ctx, Request{TenantID: tenantID, UserID: "u1", Utterance: "hello", Source: "web"})
	require.NoError(t, err) // the execution row is created even though the dispatch itself fails
	assert.Equal(t, string(models.ExecutionFailed), outcome.Status)
	require.Error(t, outcome.Err)
	assert.Equal(t, apperrors.KindBudgetExhausted, apperrors.KindOf(outcome.Err))

	exec, err := store.GetExecution(ctx, tenantID, outcome.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Equal(t, string(apperrors.KindBudgetExhausted), exec.Error.Kind)
}

func TestDispatch_ResumesExistingSession(t *testing.T) {
	d, store, tenantID := newTestDispatcher(t, "second reply")
	ctx := context.Background()

	first, err := d.Dispatch(ctx, Request{TenantID: tenantID, UserID: "u1", Utterance: "first message", Source: "web"})
	require.NoError(t, err)

	second, err := d.Dispatch(ctx, Request{TenantID: tenantID, UserID: "u1", SessionID: first.SessionID, Utterance: "follow up", Source: "web"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	sess, err := store.GetSession(ctx, tenantID, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.History, 4)
}
