// Package agent implements the per-agent execution loop (Agent Runtime)
// described in SPEC_FULL.md §4.4: it builds a persona's system prompt,
// calls the LLM through the Account Pool (pkg/accountpool), and runs the
// bounded tool-call loop against the Tool Adapter Framework (pkg/toolkit).
//
// A strategy-pattern controller system (react / native-thinking /
// streaming / synthesis controllers, selected per agent type) does not
// survive here: SPEC_FULL.md §4.4 names one execution loop, not a family
// of interchangeable iteration strategies, so BaseAgent/Controller/
// AgentFactory collapse into the single Runtime below. The per-round
// shape — call the LLM, fold tool results back into the conversation,
// bound the loop at N rounds — is grounded on pkg/agent/controller
// (react.go's iterate-then-fold pattern) generalized to a flat loop
// instead of a pluggable strategy.
// The trailing-line self-report convention (confidence.go) is grounded on
// pkg/agent/controller/scoring.go's extractScore, which parses a
// standalone numeric line the LLM is instructed to emit.
package agent

import (
	"time"

	"github.com/taskorbit/orchestrator/pkg/aggregator"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/session"
)

// TokenUsage aggregates token consumption across the LLM calls a single
// agent execution made (one per tool round).
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Request is everything the Runtime needs to execute one agent's turn.
type Request struct {
	TenantID  string
	AgentName string

	// CategoryConfig is the router's resolved model/temperature/deadline
	// policy for this dispatch (SPEC_FULL.md §4.3); every agent run within
	// one request shares it.
	CategoryConfig *config.CategoryConfig

	// SelectedSkills is the router's skill selection, used both to build
	// the tool-description section of the system prompt and, downstream,
	// as the relevance input to the Result Aggregator.
	SelectedSkills []string

	// Utterance is the user's current turn text.
	Utterance string

	// UpstreamOutput is the prior agent's final text when this run is a
	// stage in a sequential pipeline (SPEC_FULL.md §4.4 "Sequential").
	// Empty for the first stage and for parallel fan-out members.
	UpstreamOutput string

	// Snapshot is the session's bounded history, already fetched by the
	// dispatcher via pkg/session.Manager.Snapshot.
	Snapshot *session.View
}

// Result is what Runtime.Run returns: an aggregator-ready contribution
// (embedded) plus the token accounting the dispatcher needs for budget
// enforcement. Embedding aggregator.AgentResult rather than redeclaring
// its fields keeps the two packages' vocabulary identical by
// construction — the dispatcher hands Result.AgentResult straight to
// aggregator.Aggregate without a conversion step.
type Result struct {
	aggregator.AgentResult
	Usage TokenUsage
}

// defaultMaxToolRounds is the N in "at most N tool rounds (default 8)"
// from SPEC_FULL.md §4.4, used when a persona doesn't override it via
// config.AgentConfig.MaxToolRounds.
const defaultMaxToolRounds = 8

// defaultSelfConfidence is reported when an agent's response carries no
// parseable confidence line — a neutral midpoint rather than 0 (which
// would read as "actively untrustworthy") or 1 (which would let an agent
// that forgets the instruction dominate the aggregator's ranking).
const defaultSelfConfidence = 0.5

// callDeadline bounds a single LLM round-trip. CategoryConfig.Deadline is
// the whole-request budget; a single round gets a fraction of it so a
// multi-round tool loop doesn't let one slow round consume the entire
// request deadline before the loop even notices.
func callDeadline(cat *config.CategoryConfig, roundsRemaining int) time.Duration {
	if cat.Deadline <= 0 || roundsRemaining <= 0 {
		return cat.Deadline
	}
	per := cat.Deadline / time.Duration(roundsRemaining)
	const floor = 5 * time.Second
	if per < floor {
		return floor
	}
	return per
}
