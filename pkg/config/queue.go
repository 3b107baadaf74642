package config

import "time"

// QueueConfig configures the background orphan sweep (pkg/queue.Sweeper),
// which recovers OrchestratorExecution rows left stuck in "running" by a
// process that crashed before it could finalize them.
type QueueConfig struct {
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`
	OrphanThreshold         time.Duration `yaml:"orphan_threshold"`
}

// DefaultQueueConfig returns the built-in orphan-sweep defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         5 * time.Minute,
	}
}
