package models

import "time"

// AuditEventType is the closed set of notable sub-steps recorded against an
// OrchestratorExecution, generalized from a TimelineEvent/
// LLMInteraction/MCPInteraction vocabulary (stage/agent/tool, not
// alert/chain/MCP-server).
type AuditEventType string

const (
	AuditLLMCall    AuditEventType = "llm_call"
	AuditToolCall   AuditEventType = "tool_call"
	AuditStageStart AuditEventType = "stage_start"
	AuditStageEnd   AuditEventType = "stage_end"
)

// AuditLogEntry is one append-only row per notable sub-step of a dispatch,
// linked to the OrchestratorExecution it belongs to. Payloads are masked
// before being persisted (see pkg/masking).
type AuditLogEntry struct {
	ID          string
	TenantID    string
	ExecutionID string
	AgentName   string // empty for session-level entries (e.g. executive summary)
	Seq         int    // monotonic within the execution
	EventType   AuditEventType

	// LLM-call fields, populated when EventType == AuditLLMCall.
	ModelName    string
	InputTokens  int
	OutputTokens int

	// Tool-call fields, populated when EventType == AuditToolCall.
	ToolProvider  string
	ToolOperation string

	// Content holds the masked request/response/error text, JSON-encoded
	// where structured, shared across event types.
	Content      string
	ErrorMessage string
	DurationMS   int64
	CreatedAt    time.Time
}
