package config

import (
	"fmt"
	"sync"
)

// ToolProviderConfig is the static, tenant-independent declaration of a
// tool-adapter variant: which provider name it answers to and masking
// behavior applied to its request/response payloads before audit logging.
// Per-tenant credentials live in a ToolConnection row (pkg/models), not here.
type ToolProviderConfig struct {
	ProviderName string         `yaml:"provider_name" validate:"required"`
	Masking      *MaskingConfig `yaml:"masking,omitempty"`
}

// MaskingConfig controls secret/PII redaction applied to a tool provider's
// traffic before it is written to the audit log.
type MaskingConfig struct {
	Enabled       bool     `yaml:"enabled"`
	PatternGroups []string `yaml:"pattern_groups,omitempty"`
	Patterns      []string `yaml:"patterns,omitempty"`
}

// ToolProviderRegistry stores tool-provider configurations in memory with
// thread-safe access.
type ToolProviderRegistry struct {
	providers map[string]*ToolProviderConfig
	mu        sync.RWMutex
}

// NewToolProviderRegistry creates a new tool-provider registry.
func NewToolProviderRegistry(providers map[string]*ToolProviderConfig) *ToolProviderRegistry {
	copied := make(map[string]*ToolProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &ToolProviderRegistry{providers: copied}
}

func (r *ToolProviderRegistry) Get(name string) (*ToolProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolProviderNotFound, name)
	}
	return cfg, nil
}

func (r *ToolProviderRegistry) GetAll() map[string]*ToolProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ToolProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

func (r *ToolProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

func (r *ToolProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
