package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// Registry holds adapters keyed by provider name, resolved against a
// tenant's enabled Tool Connections at call time.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry builds an empty Registry; call Register for each adapter
// variant the deployment supports.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, keyed by its ProviderName. A later call with
// the same provider name replaces the earlier one.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ProviderName()] = a
}

// Resolved pairs a looked-up Adapter with the tenant's connection config
// for it, ready for Invoke.
type Resolved struct {
	Adapter Adapter
	Conn    models.ToolConnection
}

// ResolveForTenant maps a tenant's enabled Tool Connections to their
// adapters. Connections naming a provider with no registered adapter, or
// that are disabled, or that fail Preflight are skipped (logged by the
// caller) rather than causing the whole resolution to fail — absent
// credentials degrade gracefully per §4.4.1, the agent is told the
// capability is unavailable rather than the request failing outright.
func (r *Registry) ResolveForTenant(conns []models.ToolConnection) []Resolved {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Resolved
	for _, conn := range conns {
		if !conn.Enabled {
			continue
		}
		a, ok := r.adapters[conn.ProviderName]
		if !ok {
			continue
		}
		if err := a.Preflight(conn); err != nil {
			continue
		}
		out = append(out, Resolved{Adapter: a, Conn: conn})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Conn.ProviderName < out[j].Conn.ProviderName })
	return out
}

// Invoke looks up the operation across a resolved set and calls it,
// returning ErrUnavailable if no resolved adapter offers it.
func Invoke(ctx context.Context, resolved []Resolved, operation string, input json.RawMessage) (json.RawMessage, error) {
	for _, r := range resolved {
		for _, op := range r.Adapter.Operations() {
			if op.Name == operation {
				return r.Adapter.Invoke(ctx, operation, input, r.Conn)
			}
		}
	}
	return nil, fmt.Errorf("toolkit: operation %q not available: %w", operation, &ErrUnavailable{Reason: "no connected provider offers this operation"})
}
