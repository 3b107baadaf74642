package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskorbit/orchestrator/pkg/agent"
	"github.com/taskorbit/orchestrator/pkg/aggregator"
	"github.com/taskorbit/orchestrator/pkg/analyzer"
	"github.com/taskorbit/orchestrator/pkg/apperrors"
	"github.com/taskorbit/orchestrator/pkg/budget"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/events"
	"github.com/taskorbit/orchestrator/pkg/masking"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/router"
	"github.com/taskorbit/orchestrator/pkg/session"
)

// tokensPerBudgetUnit converts raw token counts into the abstract "unit"
// models.Budget tracks, so a budget limit is meaningful across providers
// with different token economics. This is left to deployment-specific
// policy elsewhere; 1000 tokens/unit is this package's fixed choice,
// documented in DESIGN.md.
const tokensPerBudgetUnit = 1000

func budgetUnitsFor(tokens tokenTotals) int64 {
	total := int64(tokens.input + tokens.output)
	if total <= 0 {
		return 0
	}
	units := total / tokensPerBudgetUnit
	if total%tokensPerBudgetUnit != 0 {
		units++
	}
	return units
}

type tokenTotals struct {
	input, output int
}

// Dispatcher wires Session -> Budget Gate -> Analyzer -> Router -> Agent
// Runtime(s) -> Result Aggregator -> persistence for one inbound request.
type Dispatcher struct {
	sessions     *session.Manager
	gate         *budget.Gate
	analyzer     *analyzer.Analyzer
	router       *router.Router
	runtime      *agent.Runtime
	categories   *config.CategoryRegistry
	timing       *config.TimingTable
	store        *db.Store
	hub          *events.Hub
	defaultAgent string
	masker       *masking.Service

	locks *sessionLocks
}

// New wires a Dispatcher. hub may be nil to disable progress-event
// publication (e.g. in tests that don't exercise GET /api/events). masker
// may be nil, in which case audit content is persisted unmasked (only
// acceptable in tests — cmd/orchestrator always supplies one).
func New(sessions *session.Manager, gate *budget.Gate, an *analyzer.Analyzer, rt *router.Router, runtime *agent.Runtime, categories *config.CategoryRegistry, timing *config.TimingTable, store *db.Store, hub *events.Hub, defaultAgent string, masker *masking.Service) *Dispatcher {
	return &Dispatcher{
		sessions: sessions, gate: gate, analyzer: an, router: rt, runtime: runtime,
		categories: categories, timing: timing, store: store, hub: hub,
		defaultAgent: defaultAgent, masker: masker, locks: newSessionLocks(),
	}
}

// Dispatch runs one request through the full pipeline. It always returns
// (Outcome{}, error) only for failures that precede any persisted state
// (session resolution); once an OrchestratorExecution row exists, Dispatch
// returns a populated Outcome with Err set instead, so the caller always
// has an execution id to report back.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	correlationID := uuid.NewString()

	if req.Utterance == "" {
		return Outcome{}, apperrors.NewValidation(correlationID, "utterance", "must not be empty")
	}

	sess, err := d.resolveSession(ctx, req)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.KindInternal, correlationID, fmt.Errorf("dispatcher: resolve session: %w", err))
	}

	release := d.locks.Acquire(sess.ID)
	defer release()

	snapshot, err := d.sessions.Snapshot(ctx, req.TenantID, sess.ID, 0)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.KindInternal, correlationID, fmt.Errorf("dispatcher: snapshot session: %w", err))
	}

	analysis := d.analyzer.Analyze(ctx, analyzer.Input{Utterance: req.Utterance, History: historyText(snapshot)})
	decision := d.router.Route(analysis, req.Utterance)

	catCfg, err := d.categories.Get(decision.Category)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.KindInternal, correlationID, fmt.Errorf("dispatcher: resolve category: %w", err))
	}

	agents := decision.Agents
	if len(agents) == 0 {
		agents = []string{d.defaultAgent}
	}

	startedAt := time.Now()
	execID := uuid.NewString()
	exec := models.OrchestratorExecution{
		ID: execID, TenantID: req.TenantID, UserID: req.UserID, SessionID: sess.ID,
		Category: string(decision.Category), Skills: decision.Skills,
		Status: models.ExecutionRunning, Input: req.Utterance, StartedAt: startedAt,
	}
	if err := d.store.CreateExecution(ctx, exec); err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.KindInternal, correlationID, fmt.Errorf("dispatcher: create execution: %w", err))
	}
	d.publish(ctx, req.TenantID, models.EventQueued, map[string]any{"execution_id": execID, "session_id": sess.ID})

	if err := d.gate.Check(ctx, req.TenantID, req.UserID, correlationID); err != nil {
		return d.finalize(ctx, req, sess.ID, exec, startedAt, nil, tokenTotals{}, err, correlationID), nil
	}

	d.publish(ctx, req.TenantID, models.EventRunning, map[string]any{"execution_id": execID, "agents": agents})

	deadline := d.timing.DeadlineFor(decision.Category)
	if deadline <= 0 {
		deadline = defaultDispatchTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	results, usage, runErr := d.runAgents(runCtx, req, execID, catCfg, decision, agents, snapshot)
	if runErr != nil {
		runErr = apperrors.Wrap(apperrors.KindOf(runErr), correlationID, runErr)
	}

	return d.finalize(ctx, req, sess.ID, exec, startedAt, results, usage, runErr, correlationID), nil
}

// finalize aggregates results (if any), persists the terminal execution
// row, records budget spend, appends the session's turn pair, and emits
// the terminal progress event. Always returns a populated Outcome.
func (d *Dispatcher) finalize(ctx context.Context, req Request, sessionID string, exec models.OrchestratorExecution, startedAt time.Time, results []aggregator.AgentResult, usage tokenTotals, runErr error, correlationID string) Outcome {
	elapsed := time.Since(startedAt)
	aggregated := aggregator.Aggregate(aggregator.Input{Results: results, SelectedSkills: nil, ElapsedMS: elapsed.Milliseconds()})

	status := models.ExecutionSuccess
	var errDetail *models.ErrorDetail
	switch {
	case runErr != nil:
		status = models.ExecutionFailed
		errDetail = &models.ErrorDetail{Kind: string(apperrors.KindOf(runErr)), Message: runErr.Error(), CorrelationID: correlationID}
	case len(aggregated.AgentsUsed) == 0 && len(results) > 0:
		status = models.ExecutionFailed
		errDetail = &models.ErrorDetail{Kind: string(apperrors.KindInternal), Message: "every dispatched agent failed", CorrelationID: correlationID}
	}

	exec.Status = status
	exec.Output = aggregated.PrimaryText
	exec.Error = errDetail
	exec.DurationMS = elapsed.Milliseconds()
	metaExtra := map[string]any{}
	if len(aggregated.FailedAgents) > 0 {
		metaExtra["failed_agents"] = aggregated.FailedAgents
	}
	exec.Metadata = models.ExecutionMetadata{
		AgentsUsed:  aggregated.AgentsUsed,
		InputTokens: usage.input, OutputTokens: usage.output,
		Extra: metaExtra,
	}
	if err := d.store.UpdateExecutionResult(ctx, exec); err != nil {
		slog.Error("dispatcher: persist execution result failed", "execution_id", exec.ID, "error", err)
	}

	if err := d.gate.Record(ctx, req.TenantID, req.UserID, budgetUnitsFor(usage)); err != nil {
		slog.Warn("dispatcher: record budget spend failed", "execution_id", exec.ID, "error", err)
	}

	turnText := aggregated.PrimaryText
	if status == models.ExecutionFailed && turnText == "" && errDetail != nil {
		turnText = errDetail.Message
	}
	now := time.Now()
	if err := d.sessions.AppendTurn(ctx, req.TenantID, sessionID, models.Turn{Role: "user", Text: req.Utterance, Timestamp: startedAt}); err != nil {
		slog.Warn("dispatcher: append user turn failed", "session_id", sessionID, "error", err)
	}
	if err := d.sessions.AppendTurn(ctx, req.TenantID, sessionID, models.Turn{Role: "agent", Text: turnText, Timestamp: now}); err != nil {
		slog.Warn("dispatcher: append agent turn failed", "session_id", sessionID, "error", err)
	}

	if status == models.ExecutionFailed {
		d.publish(ctx, req.TenantID, models.EventFailed, map[string]any{"execution_id": exec.ID, "error": errDetail})
	} else {
		d.publish(ctx, req.TenantID, models.EventCompleted, map[string]any{"execution_id": exec.ID, "result": aggregated})
	}

	return Outcome{ExecutionID: exec.ID, SessionID: sessionID, Status: string(status), Result: aggregated, Err: runErr}
}

func (d *Dispatcher) resolveSession(ctx context.Context, req Request) (*models.Session, error) {
	if req.SessionID != "" {
		return d.sessions.Get(ctx, req.TenantID, req.SessionID)
	}
	source := models.SessionSource(req.Source)
	if source == "" {
		source = models.SourceWeb
	}
	return d.sessions.GetOrCreate(ctx, req.TenantID, req.UserID, source, req.ThreadKey)
}

func historyText(snapshot *session.View) []string {
	if snapshot == nil {
		return nil
	}
	out := make([]string, 0, len(snapshot.Turns))
	for _, t := range snapshot.Turns {
		out = append(out, fmt.Sprintf("%s: %s", t.Role, t.Text))
	}
	return out
}

func (d *Dispatcher) publish(ctx context.Context, tenantID string, eventType models.ProgressEventType, payload any) {
	if d.hub == nil {
		return
	}
	if _, err := d.hub.Publish(ctx, tenantID, eventType, payload); err != nil {
		slog.Warn("dispatcher: publish progress event failed", "tenant_id", tenantID, "event_type", eventType, "error", err)
	}
}
