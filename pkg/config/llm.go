package config

import (
	"fmt"
	"sync"
)

// LLMProviderConfig defines a named LLM provider endpoint the Account Pool's
// accounts authenticate against. Unlike the original Google-native/gRPC
// shape, every provider here speaks over net/http + JSON (see pkg/llmclient
// and DESIGN.md's grpc→http substitution entry).
type LLMProviderConfig struct {
	Type LLMProviderType `yaml:"type" validate:"required"`

	Model string `yaml:"model" validate:"required"`

	// BaseURL is the provider endpoint; APIKeyEnv names the environment
	// variable holding the ambient credential used in legacy (no
	// per-tenant-account) mode.
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	MaxToolResultTokens int `yaml:"max_tool_result_tokens" validate:"required,min=1000"`
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
