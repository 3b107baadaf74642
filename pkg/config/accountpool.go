package config

import "time"

// AccountPoolConfig controls credential rotation, circuit breaker, and
// retry behavior for the Account Pool (SPEC_FULL.md §4.5).
type AccountPoolConfig struct {
	SelectionPolicy SelectionPolicy `yaml:"selection_policy"`

	// SelectionTimeout bounds how long Acquire waits for a usable account.
	SelectionTimeout time.Duration `yaml:"selection_timeout"`

	// MaxAttempts is the retry budget across distinct accounts for a single
	// request (default 3, per §4.5 step 6).
	MaxAttempts int `yaml:"max_attempts"`

	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	BackoffCap    time.Duration `yaml:"backoff_cap"`
	BackoffJitter float64       `yaml:"backoff_jitter"` // fraction, e.g. 0.2 for ±20%

	// BreakerThreshold is consecutive_failures at which closed→open (default 5).
	BreakerThreshold int `yaml:"breaker_threshold"`

	// CooldownBase/Cap govern open→half-open timing; cooldown grows with
	// repeated opens up to Cap.
	CooldownBase time.Duration `yaml:"cooldown_base"`
	CooldownCap  time.Duration `yaml:"cooldown_cap"`

	// CounterRefreshPeriod bounds the eventual-consistency window for
	// cross-process capacity counters (§5 shared-resource policy).
	CounterRefreshPeriod time.Duration `yaml:"counter_refresh_period"`
}

// DefaultAccountPoolConfig returns the built-in Account Pool defaults.
func DefaultAccountPoolConfig() *AccountPoolConfig {
	return &AccountPoolConfig{
		SelectionPolicy:      SelectionLeastLoaded,
		SelectionTimeout:     5 * time.Second,
		MaxAttempts:          3,
		BackoffBase:          1 * time.Second,
		BackoffFactor:        2,
		BackoffCap:           10 * time.Second,
		BackoffJitter:        0.2,
		BreakerThreshold:     5,
		CooldownBase:         5 * time.Minute,
		CooldownCap:          30 * time.Minute,
		CounterRefreshPeriod: 1 * time.Second,
	}
}
