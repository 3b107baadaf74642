package aggregator

import "math"

// relevance is the cosine similarity between two skill sets treated as
// binary vectors over the skill universe: |A∩B| / sqrt(|A|·|B|). For
// finite 0/1 vectors this is exactly cosine similarity and is naturally
// bounded to 0..1, satisfying step 2's "cosine-like match... normalized
// 0..1" without needing a separate normalization pass.
//
// An agent dispatched with no declared skills against a router selection
// that named some is fully irrelevant (0); a router selection with no
// skills at all (e.g. the "quick" category) imposes no constraint, so
// every agent scores fully relevant (1) — both are this package's Open
// Question resolutions, since SPEC_FULL.md doesn't say what an empty set
// means for a similarity measure.
func relevance(agentSkills, selectedSkills []string) float64 {
	if len(selectedSkills) == 0 {
		return 1
	}
	if len(agentSkills) == 0 {
		return 0
	}

	selected := make(map[string]bool, len(selectedSkills))
	for _, s := range selectedSkills {
		selected[s] = true
	}
	agent := make(map[string]bool, len(agentSkills))
	for _, s := range agentSkills {
		agent[s] = true
	}

	var overlap int
	for s := range agent {
		if selected[s] {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	return float64(overlap) / math.Sqrt(float64(len(agent))*float64(len(selected)))
}

// score combines self-reported confidence with task relevance, per step 2.
func score(r AgentResult, selectedSkills []string) float64 {
	return r.SelfConfidence * relevance(r.Skills, selectedSkills)
}
