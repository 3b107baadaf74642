package models

import (
	"encoding/json"
	"time"
)

// ProgressEventType is the closed set of event kinds streamed to subscribers.
type ProgressEventType string

const (
	EventConnected ProgressEventType = "connected"
	EventQueued    ProgressEventType = "queued"
	EventRunning   ProgressEventType = "running"
	EventToolStart ProgressEventType = "tool_start"
	EventToolEnd   ProgressEventType = "tool_end"
	EventCompleted ProgressEventType = "completed"
	EventFailed    ProgressEventType = "failed"
	EventHeartbeat ProgressEventType = "heartbeat"
	EventShutdown  ProgressEventType = "shutdown"
)

// ProgressEvent is one entry in a tenant's persisted event stream. ID is
// monotonic per tenant stream and is the resume-from cursor for replay.
type ProgressEvent struct {
	ID        int64             `json:"id"`
	TenantID  string            `json:"-"`
	Type      ProgressEventType `json:"type"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Timestamp time.Time         `json:"ts"`
}
