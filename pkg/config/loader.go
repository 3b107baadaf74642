package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// OrchestratorYAMLConfig represents the complete orchestrator.yaml file structure.
type OrchestratorYAMLConfig struct {
	ToolProviders map[string]ToolProviderConfig `yaml:"tool_providers"`
	Agents        map[string]AgentConfig        `yaml:"agents"`
	Categories    map[Category]CategoryConfig   `yaml:"categories"`
	Defaults      *Defaults                     `yaml:"defaults"`
	Queue         *QueueConfig                  `yaml:"queue"`
	Timing        *TimingTable                  `yaml:"timing"`
	AccountPool   *AccountPoolConfig            `yaml:"account_pool"`
	Retention     *RetentionConfig              `yaml:"retention"`
	ChatIngress   *ChatIngressConfig            `yaml:"chat_ingress"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point, mirroring the existing load→validate→return
// shape (pkg/config/loader.go Initialize).
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"categories", stats.Categories,
		"agents", stats.Agents,
		"tool_providers", stats.ToolProviders,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	orch, err := loader.loadOrchestratorYAML()
	if err != nil {
		return nil, NewLoadError("orchestrator.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	builtin := GetBuiltinConfig()

	categories := mergeCategories(builtin.Categories, orch.Categories)
	agents := mergeAgents(builtin.Agents, orch.Agents)
	toolProviders := mergeToolProviders(builtin.ToolProviders, orch.ToolProviders)
	llmProvidersMerged := mergeLLMProviders(map[string]LLMProviderConfig{}, llmProviders)

	defaults := orch.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.Category == "" {
		defaults.Category = CategoryQuick
	}
	if defaults.SuccessPolicy == "" {
		defaults.SuccessPolicy = SuccessPolicyAny
	}
	if defaults.SelectionPolicy == "" {
		defaults.SelectionPolicy = SelectionLeastLoaded
	}
	if defaults.SessionSnapshotTurns == 0 {
		defaults.SessionSnapshotTurns = 20
	}
	if defaults.DefaultAgent == "" {
		defaults.DefaultAgent = "writing"
	}

	queueCfg := DefaultQueueConfig()
	if orch.Queue != nil {
		if err := mergo.Merge(queueCfg, orch.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging queue config: %w", err)
		}
	}

	timing := DefaultTimingTable()
	if orch.Timing != nil {
		if err := mergo.Merge(timing, orch.Timing, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging timing config: %w", err)
		}
	}

	accountPool := DefaultAccountPoolConfig()
	if orch.AccountPool != nil {
		if err := mergo.Merge(accountPool, orch.AccountPool, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging account pool config: %w", err)
		}
	}

	retention := DefaultRetentionConfig()
	if orch.Retention != nil {
		if err := mergo.Merge(retention, orch.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging retention config: %w", err)
		}
	}

	chatIngress := orch.ChatIngress
	if chatIngress == nil {
		chatIngress = &ChatIngressConfig{Enabled: false}
	}

	return &Config{
		configDir:            configDir,
		Defaults:             defaults,
		Queue:                queueCfg,
		Retention:            retention,
		Timing:               timing,
		AccountPool:          accountPool,
		ChatIngress:          chatIngress,
		CategoryRegistry:     NewCategoryRegistry(categories),
		AgentRegistry:        NewAgentRegistry(agents),
		ToolProviderRegistry: NewToolProviderRegistry(toolProviders),
		LLMProviderRegistry:  NewLLMProviderRegistry(llmProvidersMerged),
	}, nil
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func (l *configLoader) loadOrchestratorYAML() (*OrchestratorYAMLConfig, error) {
	cfg := &OrchestratorYAMLConfig{
		ToolProviders: make(map[string]ToolProviderConfig),
		Agents:        make(map[string]AgentConfig),
		Categories:    make(map[Category]CategoryConfig),
	}
	if err := l.loadYAML("orchestrator.yaml", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	cfg := LLMProvidersYAMLConfig{LLMProviders: make(map[string]LLMProviderConfig)}
	if err := l.loadYAML("llm-providers.yaml", &cfg); err != nil {
		return nil, err
	}
	return cfg.LLMProviders, nil
}
