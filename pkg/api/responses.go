package api

import "time"

// OrchestrateResponse is returned immediately by POST /api/orchestrate;
// progress is delivered over GET /api/events, per SPEC_FULL.md §6.
type OrchestrateResponse struct {
	ExecutionID string `json:"execution_id"`
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
}

// SessionResponse is the bounded session snapshot returned by GET
// /api/sessions/{id}.
type SessionResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Source    string         `json:"source"`
	State     map[string]any `json:"state"`
	History   []TurnResponse `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// TurnResponse is one entry in SessionResponse.History.
type TurnResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
}

// HealthResponse is returned by the liveness/readiness probes.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is the status of a single readiness dependency.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
