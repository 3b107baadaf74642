package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskorbit/orchestrator/pkg/accountpool"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/session"
)

func TestExtractConfidence_ParsesTrailingLine(t *testing.T) {
	text := "Here is the answer.\n\nCONFIDENCE: 0.85"
	conf, clean := extractConfidence(text)
	assert.Equal(t, 0.85, conf)
	assert.Equal(t, "Here is the answer.", clean)
}

func TestExtractConfidence_MissingLineFallsBackToDefault(t *testing.T) {
	text := "Here is the answer, no confidence reported."
	conf, clean := extractConfidence(text)
	assert.Equal(t, defaultSelfConfidence, conf)
	assert.Equal(t, text, clean)
}

func TestExtractConfidence_ClampsOutOfRangeValues(t *testing.T) {
	// The regex only matches a leading 0 or 1 digit, so an out-of-range
	// value like "1.5" still parses (matches "1") with "." + "5" left in
	// the cleaned text — confirming the clamp never produces a negative
	// or >1 result even on a malformed line.
	conf, _ := extractConfidence("answer\nCONFIDENCE: 1")
	assert.Equal(t, 1.0, conf)
}

func TestExtractConfidence_DoesNotMatchMidSentenceNumber(t *testing.T) {
	text := "I am 0.9 sure CONFIDENCE is not a line here."
	conf, clean := extractConfidence(text)
	assert.Equal(t, defaultSelfConfidence, conf)
	assert.Equal(t, text, clean)
}

func TestFilterPatterns_AppliesConfidenceFloorAndCap(t *testing.T) {
	var all []models.PatternSuggestion
	for i := 0; i < 10; i++ {
		conf := 0.9
		if i%2 == 0 {
			conf = 0.5 // below the floor, excluded
		}
		all = append(all, models.PatternSuggestion{ID: string(rune('a' + i)), Confidence: conf})
	}

	out := filterPatterns(all)
	assert.Len(t, out, maxPatterns)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.Confidence, patternConfidenceFloor)
	}
}

func TestFilterPatterns_EmptyInputReturnsEmpty(t *testing.T) {
	assert.Empty(t, filterPatterns(nil))
}

func TestCallDeadline_DividesAcrossRemainingRounds(t *testing.T) {
	cat := &config.CategoryConfig{Deadline: 30 * time.Second}
	assert.Equal(t, 10*time.Second, callDeadline(cat, 3))
}

func TestCallDeadline_NeverGoesBelowFloor(t *testing.T) {
	cat := &config.CategoryConfig{Deadline: 2 * time.Second}
	assert.Equal(t, 5*time.Second, callDeadline(cat, 8))
}

func TestCallDeadline_ZeroDeadlineMeansUnbounded(t *testing.T) {
	cat := &config.CategoryConfig{Deadline: 0}
	assert.Equal(t, time.Duration(0), callDeadline(cat, 4))
}

func TestBuildSystemPrompt_IncludesAllFourSources(t *testing.T) {
	persona := &config.AgentConfig{Scope: "engineering", Description: "Handles engineering tasks.", CustomInstructions: "Be terse."}
	tools := []llmclient.ToolDefinition{{Name: "list_issues", Description: "List open issues."}}
	patterns := []models.PatternSuggestion{{Text: "Prefer small diffs."}}
	snapshot := &session.View{Turns: []models.Turn{{Role: "user", Text: "fix the bug"}}}

	prompt := buildSystemPrompt("engineer", persona, tools, patterns, snapshot)

	assert.Contains(t, prompt, "engineering-scoped")
	assert.Contains(t, prompt, "Handles engineering tasks.")
	assert.Contains(t, prompt, "Be terse.")
	assert.Contains(t, prompt, "list_issues: List open issues.")
	assert.Contains(t, prompt, "Prefer small diffs.")
	assert.Contains(t, prompt, "user: fix the bug")
	assert.Contains(t, prompt, "CONFIDENCE:")
}

func TestBuildSystemPrompt_OmitsEmptySections(t *testing.T) {
	persona := &config.AgentConfig{}
	prompt := buildSystemPrompt("generalist", persona, nil, nil, nil)

	assert.Contains(t, prompt, "general-purpose-scoped")
	assert.NotContains(t, prompt, "Tools available")
	assert.NotContains(t, prompt, "approved patterns")
	assert.NotContains(t, prompt, "Recent conversation")
}

func TestClassifyOutcome_DistinguishesRateLimitedFromGenericFailure(t *testing.T) {
	rateLimited := classifyOutcome(accountpool.OutcomeRateLimited, assert.AnError)
	generic := classifyOutcome(accountpool.OutcomeFailed, assert.AnError)

	assert.Contains(t, rateLimited.Error(), "rate limited")
	assert.NotContains(t, generic.Error(), "rate limited")
}
