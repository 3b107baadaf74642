package config

import "sync"

// BuiltinConfig holds the built-in fallback configuration: the category
// table from SPEC_FULL.md §4.3 and a small starter persona set. User YAML
// merges on top (user overrides built-in), the same loader idiom used
// elsewhere in this package.
type BuiltinConfig struct {
	Categories    map[Category]*CategoryConfig
	Agents        map[string]*AgentConfig
	ToolProviders map[string]*ToolProviderConfig
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration
// (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Categories:    initBuiltinCategories(),
		Agents:        initBuiltinAgents(),
		ToolProviders: initBuiltinToolProviders(),
	}
}

func initBuiltinCategories() map[Category]*CategoryConfig {
	return map[Category]*CategoryConfig{
		CategoryQuick: {
			LLMProvider: "default", Temperature: 0.1, CostClass: "low",
			Deadline: DefaultTimingTable().Deadlines[CategoryQuick],
		},
		CategoryWriting: {
			LLMProvider: "default", Temperature: 0.5, CostClass: "medium",
			Deadline: DefaultTimingTable().Deadlines[CategoryWriting],
		},
		CategoryArtistry: {
			LLMProvider: "default", Temperature: 0.9, CostClass: "medium",
			Deadline: DefaultTimingTable().Deadlines[CategoryArtistry],
		},
		CategoryVisualEng: {
			LLMProvider: "default", Temperature: 0.7, CostClass: "high",
			Deadline: DefaultTimingTable().Deadlines[CategoryVisualEng],
		},
		CategoryUltrabrain: {
			LLMProvider: "default", Temperature: 0.3, CostClass: "high",
			Deadline: DefaultTimingTable().Deadlines[CategoryUltrabrain],
		},
	}
}

func initBuiltinAgents() map[string]*AgentConfig {
	return map[string]*AgentConfig{
		"ops": {
			Scope:       "ops",
			Description: "Operational tasks: creating, updating, and querying work items",
			Skills:      []string{"tool-integration"},
			ToolProviders: []string{"task-tracker"},
		},
		"writing": {
			Scope:       "writing",
			Description: "Docs, summaries, and written artifacts",
			Skills:      []string{"writing"},
		},
		"engineering": {
			Scope:       "engineering",
			Description: "Code-adjacent investigation and review",
			Skills:      []string{"vcs", "tool-integration"},
			ToolProviders: []string{"code-host"},
		},
	}
}

func initBuiltinToolProviders() map[string]*ToolProviderConfig {
	return map[string]*ToolProviderConfig{
		"task-tracker": {ProviderName: "task-tracker"},
		"notes":        {ProviderName: "notes"},
		"code-host":    {ProviderName: "code-host"},
		"chat-poster":  {ProviderName: "chat-poster"},
	}
}
