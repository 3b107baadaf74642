// Package dispatcher is the Multi-Agent Dispatcher (SPEC_FULL.md §4.4): the
// single place that wires Session, the Budget Gate, the Analyzer, the
// Router, the Agent Runtime, and the Result Aggregator into one request's
// end-to-end handling, from an inbound utterance to a persisted
// OrchestratorExecution and a session turn.
//
// Grounded on pkg/queue/executor.go's RealSessionExecutor — which owns the
// exact same seam (resolve config, run agent(s), persist a result, emit
// progress) — generalized from a fixed alert/runbook chain onto this spec's
// analyzer→router→agent(s)→aggregator pipeline, and on pkg/queue/pool.go's
// activeSessions cancel-func registry for the per-session serialization
// lock required by §5 ("per-session turns are serialized").
package dispatcher

import (
	"time"

	"github.com/taskorbit/orchestrator/pkg/aggregator"
)

// Request is one inbound dispatch: a single utterance from a tenant/user,
// optionally continuing an existing session.
type Request struct {
	TenantID  string
	UserID    string
	SessionID string // empty: Session.GetOrCreate starts a new session
	ThreadKey string // chat-platform thread key, for session resumption
	Utterance string
	Source    string // "chat" | "web" | "cli", mirrors models.SessionSource
}

// Outcome is what Dispatch returns once the request reaches a terminal
// state: the session/execution identifiers the caller reports back
// immediately, plus (once available) the aggregated result.
type Outcome struct {
	ExecutionID string
	SessionID   string
	Status      string
	Result      aggregator.Aggregated
	Err         error
}

// agentOutcome pairs an agent's Result with the index it was dispatched at,
// so parallel fan-out can restore dispatch order before aggregation even
// though goroutines complete out of order.
type agentOutcome struct {
	index  int
	result aggregator.AgentResult
	usage  struct{ input, output int }
}

// maxParallelAgents bounds a single request's fan-out width (SPEC_FULL.md
// §5: "dispatch spawns parallel sub-goroutines for multi-agent fan-out"),
// preventing one pathological multi-agent selection from spawning an
// unbounded number of concurrent LLM calls.
const maxParallelAgents = 6

// defaultDispatchTimeout bounds the whole request when the resolved
// category carries no deadline at all (should not happen once config
// validation runs, kept as a last-resort floor).
const defaultDispatchTimeout = 2 * time.Minute
