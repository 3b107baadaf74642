// Package toolkit implements the Tool Adapter Framework per
// SPEC_FULL.md §4.4.1: a uniform capability surface over external
// productivity systems (task trackers, notes, code hosts, chat posters).
// Follows a registry-keyed, data-driven shape for adapter lookup
// (client_factory.go/router.go — a named-server capability registry),
// with the code-host adapter generalized from a one-off plain net/http
// GitHub fetcher and the chat-poster adapter generalized from a
// Slack-specific client into this package's uniform Adapter interface.
package toolkit

import (
	"context"
	"encoding/json"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// Operation is one named capability an Adapter exposes, with JSON Schema
// shapes for its input and output so the agent runtime can describe it to
// the LLM as a tool definition without the dispatcher knowing the
// provider-specific wire format underneath.
type Operation struct {
	Name         string
	Description  string
	InputSchema  string // JSON Schema
	OutputSchema string // JSON Schema
}

// Adapter exposes one external productivity system as a uniform surface.
// Implementations are polymorphic over the capability set and over
// variant (task-tracker, notes, code-host, chat-poster, ...); adding a
// new variant requires no change to the dispatcher or Registry.
type Adapter interface {
	// ProviderName identifies the variant this adapter implements, matching
	// models.ToolConnection.ProviderName.
	ProviderName() string

	// Operations lists the named operations this adapter offers.
	Operations() []Operation

	// Preflight validates that conn carries everything this adapter needs
	// to operate (credentials, required config keys) before any operation
	// is attempted, so failures surface at connection-resolve time rather
	// than mid-call.
	Preflight(conn models.ToolConnection) error

	// Invoke runs a single named operation. input/output are raw JSON
	// matching the operation's declared schemas.
	Invoke(ctx context.Context, operation string, input json.RawMessage, conn models.ToolConnection) (json.RawMessage, error)
}

// ErrUnavailable is returned (wrapped) by Invoke/Preflight when a
// capability cannot be reached — missing/invalid credentials, disabled
// connection. The dispatcher tells the agent the capability is
// unavailable rather than failing the whole request, per §4.4.1.
type ErrUnavailable struct {
	Provider string
	Reason   string
}

func (e *ErrUnavailable) Error() string {
	return "toolkit: " + e.Provider + " unavailable: " + e.Reason
}
