package models

import "time"

// SessionSource identifies the surface a session originated from.
type SessionSource string

const (
	SourceChat SessionSource = "chat"
	SourceWeb  SessionSource = "web"
	SourceCLI  SessionSource = "cli"
)

// Turn is one entry in a session's append-only history.
type Turn struct {
	Role      string // "user" | "agent" | "system"
	Text      string
	Meta      map[string]any
	Timestamp time.Time
}

// Session is conversational state scoped to a tenant and user. The Session
// Manager is the sole writer; the dispatcher mutates it only through that
// manager's contract.
type Session struct {
	ID        string
	TenantID  string
	UserID    string
	Source    SessionSource
	State     map[string]any
	History   []Turn
	Metadata  map[string]any // includes the external chat thread key, when present
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ThreadKey returns the external chat-thread identifier this session is
// keyed to for secondary lookup, if any.
func (s *Session) ThreadKey() (string, bool) {
	if s.Metadata == nil {
		return "", false
	}
	key, ok := s.Metadata["thread_key"].(string)
	return key, ok && key != ""
}
