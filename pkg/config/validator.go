package config

import (
	"fmt"

	playgroundvalidator "github.com/go-playground/validator/v10"
)

// Validator validates configuration comprehensively with clear error
// messages: struct-tag validation via go-playground/validator for field
// shape, then hand-written cross-reference checks the tag language can't
// express (category → LLM provider existence, persona → tool provider
// existence), mirroring the same ordered, fail-fast ValidateAll shape used
// elsewhere in this codebase.
type Validator struct {
	cfg *Config
	tv  *playgroundvalidator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, tv: playgroundvalidator.New()}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error) in dependency order: providers before the categories/agents
// that reference them.
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateToolProviders(); err != nil {
		return fmt.Errorf("tool provider validation failed: %w", err)
	}
	if err := v.validateCategories(); err != nil {
		return fmt.Errorf("category validation failed: %w", err)
	}
	if err := v.validateAgents(); err != nil {
		return fmt.Errorf("agent validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if q.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", q.OrphanDetectionInterval)
	}
	if q.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", q.OrphanThreshold)
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if err := v.tv.Struct(p); err != nil {
			return NewValidationError("llm_provider", name, "", err)
		}
		if !p.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("unknown provider type %q", p.Type))
		}
	}
	return nil
}

func (v *Validator) validateToolProviders() error {
	for name, p := range v.cfg.ToolProviderRegistry.GetAll() {
		if p.ProviderName == "" {
			return NewValidationError("tool_provider", name, "provider_name", fmt.Errorf("required"))
		}
	}
	return nil
}

func (v *Validator) validateCategories() error {
	for name, c := range v.cfg.CategoryRegistry.GetAll() {
		if !name.IsValid() {
			return NewValidationError("category", string(name), "", fmt.Errorf("unknown category"))
		}
		if err := v.tv.Struct(c); err != nil {
			return NewValidationError("category", string(name), "", err)
		}
		if !v.cfg.LLMProviderRegistry.Has(c.LLMProvider) {
			return NewValidationError("category", string(name), "llm_provider", fmt.Errorf("references unknown LLM provider %q", c.LLMProvider))
		}
	}
	return nil
}

func (v *Validator) validateAgents() error {
	for name, a := range v.cfg.AgentRegistry.GetAll() {
		for _, tp := range a.ToolProviders {
			if !v.cfg.ToolProviderRegistry.Has(tp) {
				return NewValidationError("agent", name, "tool_providers", fmt.Errorf("references unknown tool provider %q", tp))
			}
		}
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return fmt.Errorf("defaults configuration is nil")
	}
	if !d.Category.IsValid() {
		return fmt.Errorf("defaults.category: unknown category %q", d.Category)
	}
	if !d.SuccessPolicy.IsValid() {
		return fmt.Errorf("defaults.success_policy: unknown policy %q", d.SuccessPolicy)
	}
	return nil
}
