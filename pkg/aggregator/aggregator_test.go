package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_AllFailedYieldsEmptyPrimaryAndRecordsFailures(t *testing.T) {
	in := Input{
		Results: []AgentResult{
			{AgentName: "a1", Outcome: AgentFailed},
			{AgentName: "a2", Outcome: AgentFailed},
		},
		ElapsedMS: 42,
	}

	got := Aggregate(in)

	assert.Equal(t, "", got.PrimaryText)
	assert.Equal(t, []string{"a1", "a2"}, got.FailedAgents)
	assert.Equal(t, "weighted_merge", got.Aggregation)
	assert.Equal(t, int64(42), got.ElapsedMS)
}

func TestAggregate_HighestScorePicksPrimary(t *testing.T) {
	in := Input{
		SelectedSkills: []string{"browser", "vcs"},
		Results: []AgentResult{
			{AgentName: "weak", Outcome: AgentCompleted, Text: "A rough guess with little grounding.", SelfConfidence: 0.4, Skills: []string{"browser"}},
			{AgentName: "strong", Outcome: AgentCompleted, Text: "A well-grounded answer with citations.", SelfConfidence: 0.9, Skills: []string{"browser", "vcs"}},
		},
	}

	got := Aggregate(in)

	assert.Equal(t, "A well-grounded answer with citations.", got.PrimaryText)
	assert.ElementsMatch(t, []string{"weak", "strong"}, got.AgentsUsed)
	assert.Equal(t, "strong", got.AgentsUsed[0])
}

func TestAggregate_TieBreaksOnToolCallCountThenName(t *testing.T) {
	in := Input{
		SelectedSkills: []string{"browser"},
		Results: []AgentResult{
			{AgentName: "zeta", Outcome: AgentCompleted, Text: "Did fewer tool calls but same score.", SelfConfidence: 0.8, Skills: []string{"browser"}, ToolCallCount: 1},
			{AgentName: "alpha", Outcome: AgentCompleted, Text: "Did more tool calls at the same score.", SelfConfidence: 0.8, Skills: []string{"browser"}, ToolCallCount: 5},
		},
	}

	got := Aggregate(in)

	assert.Equal(t, "Did more tool calls at the same score.", got.PrimaryText)
	assert.Equal(t, "alpha", got.AgentsUsed[0])
}

func TestAggregate_TieBreaksOnAgentNameWhenToolCallsEqual(t *testing.T) {
	in := Input{
		Results: []AgentResult{
			{AgentName: "zeta", Outcome: AgentCompleted, Text: "Same score and tool calls, z comes later.", SelfConfidence: 0.5, ToolCallCount: 2},
			{AgentName: "alpha", Outcome: AgentCompleted, Text: "Same score and tool calls, a comes first.", SelfConfidence: 0.5, ToolCallCount: 2},
		},
	}

	got := Aggregate(in)

	assert.Equal(t, "alpha", got.AgentsUsed[0])
}

func TestAggregate_SupportingBulletsDedupedAndCapped(t *testing.T) {
	in := Input{
		SelectedSkills: []string{"browser"},
		Results: []AgentResult{
			{AgentName: "primary", Outcome: AgentCompleted, Text: "The primary finding leads the response.", SelfConfidence: 0.9, Skills: []string{"browser"}},
			{AgentName: "s1", Outcome: AgentCompleted, Text: "The site returned a 404 for the login page. A secondary detail about timing appeared here.", SelfConfidence: 0.5, Skills: []string{"browser"}},
			{AgentName: "s2", Outcome: AgentCompleted, Text: "The site returned a 404 error on the login page too. A wholly unrelated third observation shows up.", SelfConfidence: 0.4, Skills: []string{"browser"}},
		},
	}

	got := Aggregate(in)

	assert.LessOrEqual(t, len(got.Supporting), maxSupportingBullets)
	for i, bullet := range got.Supporting {
		for j, other := range got.Supporting {
			if i == j {
				continue
			}
			assert.Less(t, jaccard(shingles(bullet, shingleSize), shingles(other, shingleSize)), duplicateThreshold)
		}
	}
}

func TestAggregate_ConfidenceIsWeightedMeanOfTopN(t *testing.T) {
	in := Input{
		SelectedSkills: []string{"browser"},
		Results: []AgentResult{
			{AgentName: "a", Outcome: AgentCompleted, Text: "Answer from agent a that is long enough.", SelfConfidence: 1.0, Skills: []string{"browser"}},
			{AgentName: "b", Outcome: AgentCompleted, Text: "Answer from agent b that is long enough.", SelfConfidence: 0.0, Skills: []string{"browser"}},
		},
	}

	got := Aggregate(in)

	assert.InDelta(t, 1.0, got.Confidence, 0.05)
}

func TestRelevance_EmptySelectedSkillsIsFullyRelevant(t *testing.T) {
	assert.Equal(t, 1.0, relevance(nil, nil))
	assert.Equal(t, 1.0, relevance([]string{"browser"}, nil))
}

func TestRelevance_NoAgentSkillsAgainstNonEmptySelectionIsZero(t *testing.T) {
	assert.Equal(t, 0.0, relevance(nil, []string{"browser"}))
}

func TestRelevance_FullOverlapIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, relevance([]string{"browser", "vcs"}, []string{"browser", "vcs"}), 1e-9)
}

func TestRelevance_PartialOverlapIsBetweenZeroAndOne(t *testing.T) {
	got := relevance([]string{"browser"}, []string{"browser", "vcs"})
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestDedupeBullets_DropsNearDuplicatesAndRespectsLimit(t *testing.T) {
	candidates := []string{
		"the server returned a five hundred error on checkout",
		"the server returned a 500 error during checkout today",
		"a completely unrelated observation about load times",
	}

	got := dedupeBullets(candidates, 2)

	assert.Len(t, got, 2)
	assert.Equal(t, candidates[0], got[0])
}

func TestSplitBullets_DropsShortFragments(t *testing.T) {
	got := splitBullets("A full sentence worth keeping. No. Another reasonably long sentence here.")
	assert.Equal(t, []string{"A full sentence worth keeping", "Another reasonably long sentence here"}, got)
}
