package router

import (
	"github.com/taskorbit/orchestrator/pkg/analyzer"
	"github.com/taskorbit/orchestrator/pkg/config"
)

// Router resolves an Analyzer result plus the original utterance into a
// Decision: category, skill set, candidate agents, and a multi-agent flag.
type Router struct {
	categories *config.CategoryRegistry
	agents     *config.AgentRegistry
}

// New builds a Router against the resolved category and agent registries
// (loaded once at startup, per the same ChainRegistry/AgentRegistry idiom
// used elsewhere).
func New(categories *config.CategoryRegistry, agents *config.AgentRegistry) *Router {
	return &Router{categories: categories, agents: agents}
}

// Route applies the §4.3 selection rule: trust the Analyzer's
// category_hint when its confidence clears the threshold, otherwise fall
// back to the Router's own keyword match, otherwise default to "quick".
// Skills are the union of whatever the Analyzer already flagged and
// whatever this utterance's own keyword match adds.
func (r *Router) Route(result *analyzer.Result, utterance string) Decision {
	category := r.resolveCategory(result, utterance)

	skills := mergeSkills(result.SkillHints, matchSkills(utterance))

	var agents []string
	seen := make(map[string]struct{})
	for _, skill := range skills {
		for _, agent := range r.agents.BySkill(skill) {
			if _, ok := seen[agent]; !ok {
				seen[agent] = struct{}{}
				agents = append(agents, agent)
			}
		}
	}

	return Decision{
		Category:   category,
		Skills:     skills,
		Agents:     agents,
		MultiAgent: isMultiAgent(utterance, skills),
	}
}

func (r *Router) resolveCategory(result *analyzer.Result, utterance string) config.Category {
	if result != nil && result.Confidence >= categoryConfidenceThreshold && result.CategoryHint != "" {
		hinted := config.Category(result.CategoryHint)
		if r.categories == nil || r.categories.Has(hinted) {
			return hinted
		}
	}
	return matchCategory(utterance)
}

// mergeSkills unions two skill lists in skillPriority order, deduping,
// so the result is deterministic regardless of input order.
func mergeSkills(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var merged []string
	for _, skill := range skillPriority {
		if _, ok := set[skill]; ok {
			merged = append(merged, skill)
		}
	}
	return merged
}

// isMultiAgent flags a request that names multiple independent
// objectives: a joining conjunction between clauses, combined with two or
// more distinct skill bundles that would route to disjoint agent groups.
func isMultiAgent(utterance string, skills []string) bool {
	return hasMultiAgentJoiner(utterance) && len(skills) >= 2
}
