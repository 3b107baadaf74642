// Package config provides configuration management for the orchestrator:
// category, persona, tool-provider, and LLM-provider configuration, loaded
// from YAML with built-in defaults and environment-variable expansion.
package config

// Config is the umbrella configuration object encapsulating all registries
// and resolved defaults. This is the primary object returned by Initialize
// and threaded through the rest of the application.
type Config struct {
	configDir string

	Defaults    *Defaults
	Queue       *QueueConfig
	Retention   *RetentionConfig
	Timing      *TimingTable
	AccountPool *AccountPoolConfig

	ChatIngress *ChatIngressConfig

	CategoryRegistry     *CategoryRegistry
	AgentRegistry        *AgentRegistry
	ToolProviderRegistry *ToolProviderRegistry
	LLMProviderRegistry  *LLMProviderRegistry
}

// ChatIngressConfig groups chat-platform ingress settings (SPEC_FULL.md §6).
type ChatIngressConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TokenEnv      string `yaml:"token_env,omitempty"`
	SigningSecretEnv string `yaml:"signing_secret_env,omitempty"`
	Channel       string `yaml:"channel,omitempty"`
}

// ConfigStats reports registry sizes, for startup logging.
type ConfigStats struct {
	Categories   int
	Agents       int
	ToolProviders int
	LLMProviders int
}

func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Categories:    c.CategoryRegistry.Len(),
		Agents:        c.AgentRegistry.Len(),
		ToolProviders: c.ToolProviderRegistry.Len(),
		LLMProviders:  c.LLMProviderRegistry.Len(),
	}
}

func (c *Config) ConfigDir() string { return c.configDir }

func (c *Config) GetCategory(name Category) (*CategoryConfig, error) {
	return c.CategoryRegistry.Get(name)
}

func (c *Config) GetAgent(name string) (*AgentConfig, error) {
	return c.AgentRegistry.Get(name)
}

func (c *Config) GetToolProvider(name string) (*ToolProviderConfig, error) {
	return c.ToolProviderRegistry.Get(name)
}

func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
