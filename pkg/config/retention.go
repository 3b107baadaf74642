package config

import "time"

// RetentionConfig controls data retention and cleanup behavior.
type RetentionConfig struct {
	// SessionTTL is the idle time before a session is eligible to expire
	// (default 1 hour, per SPEC_FULL.md §3/§4.1).
	SessionTTL time.Duration `yaml:"session_ttl"`

	// EventTTL is the max age of a tenant's progress-event stream entries.
	EventTTL time.Duration `yaml:"event_ttl"`

	// ExecutionRetentionDays is how long completed OrchestratorExecution
	// (and their AuditLogEntry children) rows are kept before purge.
	ExecutionRetentionDays int `yaml:"execution_retention_days"`

	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		SessionTTL:              1 * time.Hour,
		EventTTL:                1 * time.Hour,
		ExecutionRetentionDays:  90,
		CleanupInterval:         12 * time.Hour,
	}
}
