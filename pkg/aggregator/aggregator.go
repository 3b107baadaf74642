package aggregator

import "sort"

// Aggregate runs the §4.6 algorithm: drop failures (recording them),
// score the rest, designate the top-scored result primary, pull deduped
// supporting bullets from the others, and report a weighted-mean
// confidence. Aggregate is a pure function — same Input always yields the
// same Aggregated.
func Aggregate(in Input) Aggregated {
	var failed []string
	var candidates []AgentResult
	for _, r := range in.Results {
		if r.Outcome == AgentFailed {
			failed = append(failed, r.AgentName)
			continue
		}
		candidates = append(candidates, r)
	}

	if len(candidates) == 0 {
		return Aggregated{
			FailedAgents: failed,
			ElapsedMS:    in.ElapsedMS,
			Aggregation:  "weighted_merge",
		}
	}

	ranked := rankResults(candidates, in.SelectedSkills)

	agentsUsed := make([]string, 0, len(ranked))
	for _, rr := range ranked {
		agentsUsed = append(agentsUsed, rr.result.AgentName)
	}

	primary := ranked[0]
	supporting := collectSupporting(ranked[1:])

	return Aggregated{
		PrimaryText:  primary.result.Text,
		Supporting:   supporting,
		Confidence:   weightedConfidence(ranked),
		AgentsUsed:   agentsUsed,
		FailedAgents: failed,
		ElapsedMS:    in.ElapsedMS,
		Aggregation:  "weighted_merge",
	}
}

// rankedResult pairs an AgentResult with its computed score for sorting
// and reuse across the confidence and supporting-bullet passes.
type rankedResult struct {
	result AgentResult
	score  float64
}

// rankResults scores every candidate and orders them highest-first. Ties
// within scoreTieEpsilon prefer more tool calls (more real work done),
// then lexical agent-name order, per SPEC_FULL.md's tie-break rule.
func rankResults(candidates []AgentResult, selectedSkills []string) []rankedResult {
	ranked := make([]rankedResult, len(candidates))
	for i, r := range candidates {
		ranked[i] = rankedResult{result: r, score: score(r, selectedSkills)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if diff := a.score - b.score; diff > scoreTieEpsilon || diff < -scoreTieEpsilon {
			return a.score > b.score
		}
		if a.result.ToolCallCount != b.result.ToolCallCount {
			return a.result.ToolCallCount > b.result.ToolCallCount
		}
		return a.result.AgentName < b.result.AgentName
	})
	return ranked
}

// collectSupporting pulls bullet candidates from every non-primary result
// in rank order (so the most relevant agents' points are favored when the
// cap trims the list), then dedupes by shingling.
func collectSupporting(rest []rankedResult) []string {
	var candidates []string
	for _, rr := range rest {
		candidates = append(candidates, splitBullets(rr.result.Text)...)
	}
	deduped := dedupeBullets(candidates, maxSupportingBullets)
	if deduped == nil {
		return []string{}
	}
	return deduped
}

// weightedConfidence averages the self-confidence of the top-n ranked
// results, weighted by their score, per step 5.
func weightedConfidence(ranked []rankedResult) float64 {
	n := confidenceTopN
	if n > len(ranked) {
		n = len(ranked)
	}
	var weightedSum, weightSum float64
	for _, rr := range ranked[:n] {
		weight := rr.score
		if weight <= 0 {
			weight = 0.01 // a zero-relevance top result still counts, at a floor weight
		}
		weightedSum += rr.result.SelfConfidence * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}
