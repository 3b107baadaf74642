package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/orchestrator/pkg/analyzer"
	"github.com/taskorbit/orchestrator/pkg/config"
)

func testCategories(t *testing.T) *config.CategoryRegistry {
	t.Helper()
	return config.NewCategoryRegistry(map[config.Category]*config.CategoryConfig{
		config.CategoryQuick:      {LLMProvider: "p", CostClass: "low", Deadline: 1},
		config.CategoryWriting:    {LLMProvider: "p", CostClass: "medium", Deadline: 1},
		config.CategoryArtistry:   {LLMProvider: "p", CostClass: "medium", Deadline: 1},
		config.CategoryVisualEng:  {LLMProvider: "p", CostClass: "high", Deadline: 1},
		config.CategoryUltrabrain: {LLMProvider: "p", CostClass: "high", Deadline: 1},
	})
}

func testAgents(t *testing.T) *config.AgentRegistry {
	t.Helper()
	return config.NewAgentRegistry(map[string]*config.AgentConfig{
		"GitAgent":    {Scope: "engineering", Skills: []string{"vcs"}},
		"DesignAgent": {Scope: "product", Skills: []string{"ui-design"}},
		"OpsAgent":    {Scope: "ops", Skills: []string{"tool-integration"}},
	})
}

func TestRoute_TrustsHighConfidenceHint(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{CategoryHint: "ultrabrain", Confidence: 0.8}

	decision := r.Route(result, "please look at this")
	assert.Equal(t, config.CategoryUltrabrain, decision.Category)
}

func TestRoute_LowConfidenceFallsBackToKeywordMatch(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{CategoryHint: "ultrabrain", Confidence: 0.2}

	decision := r.Route(result, "can you write up a summary of the release notes")
	assert.Equal(t, config.CategoryWriting, decision.Category)
}

func TestRoute_UnrecognizedUtteranceDefaultsToQuick(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{Confidence: 0.1}

	decision := r.Route(result, "what's up")
	assert.Equal(t, config.CategoryQuick, decision.Category)
}

func TestRoute_SkillsResolveToAgents(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{Confidence: 0.1}

	decision := r.Route(result, "merge the pull request for the git repository")
	require.Contains(t, decision.Skills, "vcs")
	assert.Contains(t, decision.Agents, "GitAgent")
}

func TestRoute_MultiAgentFlaggedOnJoinerAndTwoSkills(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{Confidence: 0.1}

	decision := r.Route(result, "merge the pull request and then design a new mockup for the dashboard")
	assert.True(t, decision.MultiAgent)
	assert.Contains(t, decision.Skills, "vcs")
	assert.Contains(t, decision.Skills, "ui-design")
}

func TestRoute_SingleSkillIsNeverMultiAgent(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{Confidence: 0.1}

	decision := r.Route(result, "merge the pull request and then close it")
	assert.False(t, decision.MultiAgent)
}

func TestRoute_UnknownCategoryHintFallsBackToKeywordMatch(t *testing.T) {
	r := New(testCategories(t), testAgents(t))
	result := &analyzer.Result{CategoryHint: "nonexistent", Confidence: 0.9}

	decision := r.Route(result, "draft a document summarizing the quarter")
	assert.Equal(t, config.CategoryWriting, decision.Category)
}

func TestMergeSkills_DedupesAndOrdersByPriority(t *testing.T) {
	merged := mergeSkills([]string{"vcs", "browser"}, []string{"tool-integration", "vcs"})
	assert.Equal(t, []string{"tool-integration", "browser", "vcs"}, merged)
}
