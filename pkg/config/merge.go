package config

// mergeCategories merges built-in and user-defined category configurations;
// user-defined categories override built-in ones with the same name.
func mergeCategories(builtin map[Category]*CategoryConfig, user map[Category]CategoryConfig) map[Category]*CategoryConfig {
	result := make(map[Category]*CategoryConfig, len(builtin)+len(user))
	for name, cfg := range builtin {
		cfgCopy := *cfg
		result[name] = &cfgCopy
	}
	for name, cfg := range user {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}
	return result
}

// mergeAgents merges built-in and user-defined persona configurations.
func mergeAgents(builtin map[string]*AgentConfig, user map[string]AgentConfig) map[string]*AgentConfig {
	result := make(map[string]*AgentConfig, len(builtin)+len(user))
	for name, cfg := range builtin {
		cfgCopy := *cfg
		result[name] = &cfgCopy
	}
	for name, cfg := range user {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}
	return result
}

// mergeToolProviders merges built-in and user-defined tool-provider configurations.
func mergeToolProviders(builtin map[string]*ToolProviderConfig, user map[string]ToolProviderConfig) map[string]*ToolProviderConfig {
	result := make(map[string]*ToolProviderConfig, len(builtin)+len(user))
	for name, cfg := range builtin {
		cfgCopy := *cfg
		result[name] = &cfgCopy
	}
	for name, cfg := range user {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}
	return result
}

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
func mergeLLMProviders(builtin map[string]LLMProviderConfig, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig, len(builtin)+len(user))
	for name, cfg := range builtin {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}
	for name, cfg := range user {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}
	return result
}
