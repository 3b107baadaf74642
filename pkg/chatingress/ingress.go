// Package chatingress adapts inbound chat-platform messages (mentions, slash
// commands) into session turns and dispatch submissions, and posts replies
// back to the originating thread. ChatIngress is the seam: additional chat
// platforms are added as new implementations, never by touching the
// dispatcher.
package chatingress

import (
	"context"
	"time"
)

// InboundMessage is a normalized chat-platform message, independent of the
// originating platform's wire format.
type InboundMessage struct {
	TenantID   string
	ExternalID string // platform-specific sender id, mapped to a User by the caller
	Text       string
	ThreadKey  string // secondary lookup key for Session.GetOrCreate
}

// ChatIngress is the uniform surface a chat platform adapter implements.
type ChatIngress interface {
	// VerifySignature checks the platform's request signature against the
	// configured signing secret. Implementations must run this before
	// ParseInbound trusts any field of the raw payload.
	VerifySignature(headers map[string]string, body []byte) error

	// ParseInbound extracts the normalized message from a verified payload.
	ParseInbound(body []byte) (*InboundMessage, error)

	// PostPlaceholder posts an initial "working on it" reply to a thread and
	// returns an opaque handle PostReply/EditPlaceholder can later target.
	PostPlaceholder(ctx context.Context, threadKey string) (string, error)

	// EditPlaceholder replaces a previously posted placeholder with the final
	// reply text once the dispatch reaches a terminal state.
	EditPlaceholder(ctx context.Context, handle string, status TerminalStatus, text string) error

	// PostReply posts a reply without a prior placeholder (used for replies
	// that complete within a single round trip).
	PostReply(ctx context.Context, threadKey, text string) error
}

// TerminalStatus is the subset of dispatch outcomes a chat reply renders
// differently (emoji, label) — mirrors models.ExecutionStatus but kept local
// so the ingress package doesn't need to import the full execution model.
type TerminalStatus string

const (
	TerminalCompleted TerminalStatus = "completed"
	TerminalFailed    TerminalStatus = "failed"
	TerminalTimedOut  TerminalStatus = "timed_out"
	TerminalCancelled TerminalStatus = "cancelled"
)

// replyTimeout bounds a single outbound post/edit call to the chat platform.
const replyTimeout = 10 * time.Second
