// Package aggregator implements the Result Aggregator per SPEC_FULL.md
// §4.6: it combines the outputs of multiple parallel agents into a single
// user-facing result. The aggregator is a pure function of its inputs — no
// component elsewhere builds this exact shape, since nothing else runs
// agents in parallel for a single user-facing answer, only as a sequential
// chain that gets synthesized — so the status-handling idiom is adapted
// from pkg/queue/executor.go's aggregateStatus/aggregateError/
// collectAndSort (index-preserving collection, policy-driven aggregation)
// and the confidence/scoring vocabulary from pkg/agent/controller/scoring.go
// and pkg/agent/scoring_agent.go.
package aggregator

// AgentOutcome is the terminal state of a single agent's contribution to a
// parallel dispatch.
type AgentOutcome string

const (
	AgentCompleted AgentOutcome = "completed"
	AgentFailed    AgentOutcome = "failed"
)

// AgentResult is one agent's contribution, as the dispatcher collects it
// off the fan-out. SelfConfidence is the agent's own reported confidence
// (see §4.4's "confidence self-report"); Skills is the set of skill tags
// the agent was dispatched to cover, used to score task relevance against
// the router's selection.
type AgentResult struct {
	AgentName      string
	Outcome        AgentOutcome
	Text           string
	SelfConfidence float64
	Skills         []string
	ToolCallCount  int
	Err            error
}

// Input is everything Aggregate needs; it takes no other dependency, so
// the same input always produces the same output.
type Input struct {
	Results        []AgentResult
	SelectedSkills []string
	ElapsedMS      int64
}

// Aggregated is the emitted shape from SPEC_FULL.md §4.6 step 5.
type Aggregated struct {
	PrimaryText  string   `json:"primary_text"`
	Supporting   []string `json:"supporting"`
	Confidence   float64  `json:"confidence"`
	AgentsUsed   []string `json:"agents_used"`
	FailedAgents []string `json:"failed_agents,omitempty"`
	ElapsedMS    int64    `json:"elapsed_ms"`
	Aggregation  string   `json:"aggregation"`
}

// scoreTieEpsilon is how close two scores must be before the tie-break
// rules (tool-call count, then agent name) decide the primary result.
const scoreTieEpsilon = 0.01

// maxSupportingBullets caps how many deduped bullets from non-primary
// results are surfaced alongside the primary answer.
const maxSupportingBullets = 5

// confidenceTopN bounds how many of the top-scored results contribute to
// the weighted-mean confidence figure, per step 5 ("weighted mean of
// top-n"); n itself isn't specified further, so 3 is this package's Open
// Question resolution — enough to smooth out one outlier self-report
// without diluting a single strong result.
const confidenceTopN = 3
