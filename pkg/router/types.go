// Package router chooses the category (model tier) and skill set for a
// dispatch, and flags multi-agent requests, per SPEC_FULL.md §4.3. Router
// output is a pure function of its inputs: given the same Analyzer result
// and utterance, it always produces the same Decision.
package router

import "github.com/taskorbit/orchestrator/pkg/config"

// categoryPriority is the fixed tie-break order the keyword-match path
// checks categories in, so two equally-scoring categories always resolve
// the same way regardless of map iteration order.
var categoryPriority = []config.Category{
	config.CategoryQuick,
	config.CategoryWriting,
	config.CategoryArtistry,
	config.CategoryVisualEng,
	config.CategoryUltrabrain,
}

// skillPriority fixes the order skills are evaluated and returned in.
var skillPriority = []string{
	"tool-integration",
	"browser",
	"vcs",
	"ui-design",
}

// Decision is the Router's pure-function output.
type Decision struct {
	Category   config.Category
	Skills     []string
	Agents     []string
	MultiAgent bool
}

// categoryConfidenceThreshold is the §4.3 selection rule's cutoff: below
// this, the Analyzer's category_hint is not trusted and the Router falls
// back to its own keyword match.
const categoryConfidenceThreshold = 0.6
