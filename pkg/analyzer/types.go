// Package analyzer turns a free-form user utterance into a structured
// routing hint for the Router (pkg/router). There is no direct analogue in
// this domain — alert ingestion elsewhere is already structured, never
// free-text NLU — so this package is designed fresh, grounded on the
// existing LLM-call plumbing (now pkg/llmclient) for the LLM path and on
// pkg/mcp/recovery.go's ClassifyError idiom for the fail-open decision of
// when to fall back to a deterministic path.
package analyzer

// Intent is the closed set of recognized request intents. Anything the LLM
// or the keyword fallback cannot place lands on IntentOther.
type Intent string

const (
	IntentCreateTask Intent = "create_task"
	IntentUpdateTask Intent = "update_task"
	IntentListTasks  Intent = "list_tasks"
	IntentSearch     Intent = "search"
	IntentChat       Intent = "chat"
	IntentOther      Intent = "other"
)

func (i Intent) normalize() Intent {
	switch i {
	case IntentCreateTask, IntentUpdateTask, IntentListTasks, IntentSearch, IntentChat:
		return i
	default:
		return IntentOther
	}
}

// Result is the Analyzer's structured output. Confidence is always in
// [0, 1]; Uncertain is set whenever Confidence < uncertainThreshold so
// callers never have to re-derive the cutoff themselves.
type Result struct {
	Intent       Intent
	Entities     map[string]string
	Language     string
	CategoryHint string
	SkillHints   []string
	Confidence   float64
	Uncertain    bool

	// Source records which path produced this result ("llm" or "keyword"),
	// useful for metrics and for the audit trail.
	Source string
}

// Input is a single utterance to analyze, plus a bounded window of recent
// conversation history for context.
type Input struct {
	Utterance string
	History   []string
}

const uncertainThreshold = 0.5

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
