package config

// Defaults contains system-wide default configurations, used when a
// category or persona doesn't specify its own values.
type Defaults struct {
	LLMProvider     string        `yaml:"llm_provider,omitempty"`
	Category        Category      `yaml:"category,omitempty"`
	SuccessPolicy   SuccessPolicy `yaml:"success_policy,omitempty"`
	SelectionPolicy SelectionPolicy `yaml:"selection_policy,omitempty"`
	MaxToolRounds   *int          `yaml:"max_tool_rounds,omitempty" validate:"omitempty,min=1"`
	SessionSnapshotTurns int      `yaml:"session_snapshot_turns,omitempty"`

	// DefaultAgent is the persona the dispatcher falls back to when the
	// Router's skill match selects no agent at all (plain chat with no
	// tool-integration/vcs/browser/ui-design skill hit).
	DefaultAgent string `yaml:"default_agent,omitempty"`
}
