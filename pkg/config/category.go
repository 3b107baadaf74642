package config

import (
	"fmt"
	"sync"
	"time"
)

// CategoryConfig is the per-category model/temperature/deadline policy the
// router resolves into. Externalizing this as data — rather than a switch
// statement over Category — resolves Open Question #2 (see SPEC_FULL.md
// §4.3, §9).
type CategoryConfig struct {
	LLMProvider     string        `yaml:"llm_provider" validate:"required"`
	Temperature     float64       `yaml:"temperature" validate:"min=0,max=2"`
	CostClass       string        `yaml:"cost_class" validate:"required,oneof=low medium high"`
	Deadline        time.Duration `yaml:"deadline" validate:"required"`
	ThinkingBudget  int           `yaml:"thinking_budget,omitempty"`
	PromptStyle     string        `yaml:"prompt_style,omitempty"`
}

// CategoryRegistry stores category configurations in memory with
// thread-safe access, following the same AgentRegistry/LLMProviderRegistry
// shape used elsewhere (defensive-copy construction, RWMutex reads).
type CategoryRegistry struct {
	categories map[Category]*CategoryConfig
	mu         sync.RWMutex
}

// NewCategoryRegistry creates a new category registry.
func NewCategoryRegistry(categories map[Category]*CategoryConfig) *CategoryRegistry {
	copied := make(map[Category]*CategoryConfig, len(categories))
	for k, v := range categories {
		copied[k] = v
	}
	return &CategoryRegistry{categories: copied}
}

// Get retrieves a category configuration by name (thread-safe).
func (r *CategoryRegistry) Get(name Category) (*CategoryConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, exists := r.categories[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	return cfg, nil
}

// GetAll returns all category configurations (thread-safe, returns a copy).
func (r *CategoryRegistry) GetAll() map[Category]*CategoryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[Category]*CategoryConfig, len(r.categories))
	for k, v := range r.categories {
		result[k] = v
	}
	return result
}

// Has reports whether a category is registered (thread-safe).
func (r *CategoryRegistry) Has(name Category) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.categories[name]
	return exists
}

func (r *CategoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories)
}
