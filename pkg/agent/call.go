package agent

import (
	"context"
	"fmt"

	"github.com/taskorbit/orchestrator/pkg/accountpool"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
)

// callOnce performs a single LLM round-trip through the Account Pool,
// consuming the streamed response into a complete text/tool-call/usage
// triple. The Pool may invoke the given CallFunc more than once across
// different accounts on retry (SPEC_FULL.md §4.5 steps 6-7), so the
// accumulators below are reset at the start of the closure rather than
// declared once outside it.
func (rt *Runtime) callOnce(ctx context.Context, tenantID string, provider *config.LLMProviderConfig, messages []llmclient.ConversationMessage, tools []llmclient.ToolDefinition, cat *config.CategoryConfig, roundsRemaining int) (string, []llmclient.ToolCall, TokenUsage, accountpool.Outcome, error) {
	callCtx := ctx
	if d := callDeadline(cat, roundsRemaining); d > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	var text string
	var toolCalls []llmclient.ToolCall

	result, err := rt.pool.Execute(callCtx, tenantID, provider, func(ctx context.Context, apiKey string) (accountpool.Usage, error) {
		text = ""
		toolCalls = nil

		input := &llmclient.GenerateInput{
			TenantID:       tenantID,
			Messages:       messages,
			Config:         provider,
			APIKey:         apiKey,
			Tools:          tools,
			Temperature:    cat.Temperature,
			HasTemperature: true,
		}
		chunks, genErr := rt.llm.Generate(ctx, input)
		if genErr != nil {
			return accountpool.Usage{}, genErr
		}

		var usage accountpool.Usage
		var streamErr error
		for chunk := range chunks {
			switch c := chunk.(type) {
			case *llmclient.TextChunk:
				text += c.Content
			case *llmclient.ToolCallChunk:
				toolCalls = append(toolCalls, llmclient.ToolCall{ID: c.CallID, Name: c.Name, Arguments: c.Arguments})
			case *llmclient.UsageChunk:
				usage.InputTokens = c.InputTokens
				usage.OutputTokens = c.OutputTokens
			case *llmclient.ErrorChunk:
				streamErr = fmt.Errorf("%s (%s)", c.Message, c.Code)
			}
		}
		return usage, streamErr
	})

	usage := TokenUsage{
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		TotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens + result.Usage.CachedTokens,
	}
	return text, toolCalls, usage, result.Outcome, err
}
