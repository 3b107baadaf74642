package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskorbit/orchestrator/pkg/accountpool"
	"github.com/taskorbit/orchestrator/pkg/aggregator"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/toolkit"
)

// patternQueryLimit is how many approved patterns Runtime pulls from the
// store before applying the confidence≥0.8 filter and the final cap of 5
// (SPEC_FULL.md §4.4 step 1). The store already orders by relevance DESC,
// so pulling a modest multiple of the final cap is enough to find 5
// that clear the confidence bar without scanning the whole table.
const patternQueryLimit = 20

// patternConfidenceFloor and maxPatterns are the §4.4 step 1 filter: only
// patterns with confidence≥0.8 are eligible, capped at 5.
const patternConfidenceFloor = 0.8
const maxPatterns = 5

// Runtime executes one agent persona's turn: prompt construction, the LLM
// call through the Account Pool, and the bounded tool-call loop.
// Stateless across calls — every dependency is injected, nothing is
// cached between Run invocations — so a Runtime is safe to share across
// concurrently dispatched agents.
type Runtime struct {
	agents    *config.AgentRegistry
	providers *config.LLMProviderRegistry
	llm       llmclient.Client
	pool      *accountpool.Pool
	tools     *toolkit.Registry
	store     *db.Store
}

// NewRuntime wires the Agent Runtime's dependencies.
func NewRuntime(agents *config.AgentRegistry, providers *config.LLMProviderRegistry, llm llmclient.Client, pool *accountpool.Pool, tools *toolkit.Registry, store *db.Store) *Runtime {
	return &Runtime{agents: agents, providers: providers, llm: llm, pool: pool, tools: tools, store: store}
}

// Run executes req against its named persona and returns an
// aggregator-ready contribution. The returned error is non-nil only for
// infrastructure failures where no meaningful result exists (unknown
// persona, unknown provider, pattern-store lookup failure) — LLM and
// tool failures are folded into Result.Outcome instead, mirroring
// BaseAgent.Execute's error contract.
func (rt *Runtime) Run(ctx context.Context, req *Request) (*Result, error) {
	persona, err := rt.agents.Get(req.AgentName)
	if err != nil {
		return nil, fmt.Errorf("agent: resolve persona: %w", err)
	}
	provider, err := rt.providers.Get(req.CategoryConfig.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("agent: resolve provider: %w", err)
	}

	patterns, err := rt.approvedPatterns(ctx, req.TenantID, req.AgentName)
	if err != nil {
		return nil, fmt.Errorf("agent: load pattern suggestions: %w", err)
	}

	conns, err := rt.store.ListToolConnections(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("agent: load tool connections: %w", err)
	}
	resolved := rt.tools.ResolveForTenant(conns)
	toolDefs := toolDefinitionsFor(resolved)

	system := buildSystemPrompt(req.AgentName, persona, toolDefs, patterns, req.Snapshot)
	messages := []llmclient.ConversationMessage{{Role: llmclient.RoleSystem, Content: system}}
	if req.UpstreamOutput != "" {
		messages = append(messages, llmclient.ConversationMessage{
			Role:    llmclient.RoleUser,
			Content: fmt.Sprintf("Prior agent output to build on:\n%s", req.UpstreamOutput),
		})
	}
	messages = append(messages, llmclient.ConversationMessage{Role: llmclient.RoleUser, Content: req.Utterance})

	maxRounds := defaultMaxToolRounds
	if persona.MaxToolRounds != nil {
		maxRounds = *persona.MaxToolRounds
	}

	var usage TokenUsage
	var toolCallCount int
	var finalText string

	for round := 0; round < maxRounds; round++ {
		text, toolCalls, roundUsage, outcome, err := rt.callOnce(ctx, req.TenantID, provider, messages, toolDefs, req.CategoryConfig, maxRounds-round)
		usage.InputTokens += roundUsage.InputTokens
		usage.OutputTokens += roundUsage.OutputTokens
		usage.TotalTokens += roundUsage.TotalTokens

		if err != nil {
			return &Result{
				AgentResult: aggregator.AgentResult{
					AgentName:     req.AgentName,
					Outcome:       aggregator.AgentFailed,
					Skills:        req.SelectedSkills,
					ToolCallCount: toolCallCount,
					Err:           classifyOutcome(outcome, err),
				},
				Usage: usage,
			}, nil
		}

		if len(toolCalls) == 0 {
			finalText = text
			break
		}

		finalText = text
		messages = append(messages, llmclient.ConversationMessage{Role: llmclient.RoleAssistant, Content: text, ToolCalls: toolCalls})
		for _, tc := range toolCalls {
			toolCallCount++
			out, invokeErr := toolkit.Invoke(ctx, resolved, tc.Name, json.RawMessage(tc.Arguments))
			var content string
			if invokeErr != nil {
				content = fmt.Sprintf("error: %v", invokeErr)
			} else {
				content = string(out)
			}
			messages = append(messages, llmclient.ConversationMessage{
				Role: llmclient.RoleTool, Content: content, ToolCallID: tc.ID, ToolName: tc.Name,
			})
		}
	}

	confidence, cleanText := extractConfidence(finalText)

	return &Result{
		AgentResult: aggregator.AgentResult{
			AgentName:      req.AgentName,
			Outcome:        aggregator.AgentCompleted,
			Text:           cleanText,
			SelfConfidence: confidence,
			Skills:         req.SelectedSkills,
			ToolCallCount:  toolCallCount,
		},
		Usage: usage,
	}, nil
}

// approvedPatterns applies the §4.4 step 1 filter (confidence≥0.8, cap 5,
// ranked by relevance) on top of the store's tenant+agent-type query.
func (rt *Runtime) approvedPatterns(ctx context.Context, tenantID, agentName string) ([]models.PatternSuggestion, error) {
	all, err := rt.store.ListApprovedPatterns(ctx, tenantID, agentName, patternQueryLimit)
	if err != nil {
		return nil, err
	}
	return filterPatterns(all), nil
}

// filterPatterns applies the confidence≥0.8, cap-5 rule on top of a
// relevance-ordered pattern list. Split out from approvedPatterns so the
// filter itself is unit-testable without a store.
func filterPatterns(all []models.PatternSuggestion) []models.PatternSuggestion {
	out := make([]models.PatternSuggestion, 0, maxPatterns)
	for _, p := range all {
		if p.Confidence < patternConfidenceFloor {
			continue
		}
		out = append(out, p)
		if len(out) == maxPatterns {
			break
		}
	}
	return out
}

func toolDefinitionsFor(resolved []toolkit.Resolved) []llmclient.ToolDefinition {
	var defs []llmclient.ToolDefinition
	for _, r := range resolved {
		for _, op := range r.Adapter.Operations() {
			defs = append(defs, llmclient.ToolDefinition{
				Name:             op.Name,
				Description:      op.Description,
				ParametersSchema: op.InputSchema,
			})
		}
	}
	return defs
}

// classifyOutcome turns a rate-limited Account Pool outcome into a
// distinguishable error so the dispatcher can tell "the provider is
// throttled, try again later" apart from a generic failure.
func classifyOutcome(outcome accountpool.Outcome, err error) error {
	if outcome == accountpool.OutcomeRateLimited {
		return fmt.Errorf("agent: provider rate limited: %w", err)
	}
	return fmt.Errorf("agent: llm call failed: %w", err)
}
