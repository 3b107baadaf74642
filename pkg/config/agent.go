package config

import (
	"fmt"
	"sync"
)

// AgentConfig defines a named persona's metadata (scope, skills, prompt
// overrides) — see pkg/agent for instantiation.
type AgentConfig struct {
	// Scope is a human label for the persona's domain, e.g. "brand",
	// "marketing", "ops", "product", "engineering", "support", "growth",
	// "finance".
	Scope string `yaml:"scope,omitempty"`

	Description string `yaml:"description,omitempty"`

	// Skills this persona advertises; the router's skill→agent mapping is
	// data-driven off this list, never a hard-coded switch.
	Skills []string `yaml:"skills" validate:"omitempty"`

	// ToolProviders this persona may call through the Tool Adapter Framework.
	ToolProviders []string `yaml:"tool_providers,omitempty"`

	CustomInstructions string `yaml:"custom_instructions,omitempty"`

	// MaxToolRounds bounds the tool-call loop for this persona (default 8).
	MaxToolRounds *int `yaml:"max_tool_rounds,omitempty" validate:"omitempty,min=1"`
}

// AgentRegistry stores persona configurations in memory with thread-safe access.
type AgentRegistry struct {
	agents map[string]*AgentConfig
	mu     sync.RWMutex
}

// NewAgentRegistry creates a new agent (persona) registry.
func NewAgentRegistry(agents map[string]*AgentConfig) *AgentRegistry {
	copied := make(map[string]*AgentConfig, len(agents))
	for k, v := range agents {
		copied[k] = v
	}
	return &AgentRegistry{agents: copied}
}

// Get retrieves a persona configuration by name (thread-safe).
func (r *AgentRegistry) Get(name string) (*AgentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return agent, nil
}

// GetAll returns all persona configurations (thread-safe, returns a copy).
func (r *AgentRegistry) GetAll() map[string]*AgentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*AgentConfig, len(r.agents))
	for k, v := range r.agents {
		result[k] = v
	}
	return result
}

// BySkill returns the names of personas advertising the given skill, in
// registry-stable order (sorted), for deterministic routing.
func (r *AgentRegistry) BySkill(skill string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, cfg := range r.agents {
		for _, s := range cfg.Skills {
			if s == skill {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func (r *AgentRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.agents[name]
	return exists
}

func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
