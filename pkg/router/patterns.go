package router

import (
	"strings"

	"github.com/taskorbit/orchestrator/pkg/config"
)

// categoryKeywords is the Router's own keyword/pattern match, used only
// when the Analyzer's category_hint confidence falls below
// categoryConfidenceThreshold. Deliberately separate from
// pkg/analyzer's category lexicon: the Analyzer's hint is a best-effort
// LLM-assisted guess, this is the deterministic tie-break of last resort
// and must never depend on the Analyzer's internals to stay a pure
// function of (Decision inputs) alone.
var categoryKeywords = map[config.Category][]string{
	config.CategoryUltrabrain: {"architecture", "root cause", "design a system", "deep dive", "trade-off"},
	config.CategoryVisualEng:  {"ui", "frontend", "css", "layout", "component", "responsive"},
	config.CategoryArtistry:   {"brainstorm", "creative", "idea", "concept art", "tagline"},
	config.CategoryWriting:    {"summarize", "draft", "write up", "document", "changelog", "report"},
}

// skillKeywords maps a skill bundle to the phrases that trigger it.
var skillKeywords = map[string][]string{
	"tool-integration": {"integrate", "webhook", "api key", "connect to", "third-party"},
	"browser":          {"browse", "open the page", "screenshot of", "navigate to", "website"},
	"vcs":              {"git", "pull request", "merge", "commit", "branch", "repository"},
	"ui-design":        {"mockup", "wireframe", "figma", "component library", "design system"},
}

func matchCategory(utterance string) config.Category {
	lower := strings.ToLower(utterance)
	for _, category := range categoryPriority {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(lower, kw) {
				return category
			}
		}
	}
	return config.CategoryQuick
}

func matchSkills(utterance string) []string {
	lower := strings.ToLower(utterance)
	var skills []string
	for _, skill := range skillPriority {
		for _, kw := range skillKeywords[skill] {
			if strings.Contains(lower, kw) {
				skills = append(skills, skill)
				break
			}
		}
	}
	return skills
}

// multiAgentJoiners are the conjunctions the heuristic looks for between
// two independent objectives.
var multiAgentJoiners = []string{" and then ", " then ", " and also ", " and "}

func hasMultiAgentJoiner(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, j := range multiAgentJoiners {
		if strings.Contains(lower, j) {
			return true
		}
	}
	return false
}
