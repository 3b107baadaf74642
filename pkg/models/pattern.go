package models

import "time"

// PatternSuggestion is approved textual guidance the dispatcher prepends to
// an agent's system prompt when confidence is high enough. The dispatcher
// treats the store behind this as an opaque read-through enrichment.
type PatternSuggestion struct {
	ID         string
	TenantID   string
	AgentType  string
	Text       string
	Confidence float64
	Relevance  float64 // pre-computed relevance to the current skill set, 0..1
	Approved   bool
	CreatedAt  time.Time
}
