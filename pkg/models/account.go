package models

import "time"

// AccountStatus is the coarse availability state of a ProviderAccount,
// independent of its circuit breaker state.
type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountCooling     AccountStatus = "cooling"
	AccountDisabled    AccountStatus = "disabled"
	AccountRateLimited AccountStatus = "rate_limited"
)

// CircuitState is the breaker state machine for a ProviderAccount.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CapacityCounters windowed request/token rates, refreshed on a bounded
// period (see accountpool package for the refresh cadence).
type CapacityCounters struct {
	RequestsPerMinute   int
	TokensPerMinute     int
	InputTokensPerMinute int
}

// ProviderAccount is a credential for the LLM provider, owned by a tenant.
// EncryptedSecret is opaque to every component except the provider client
// that decrypts it immediately before use; it is never logged.
type ProviderAccount struct {
	ID                  string
	TenantID            string
	DisplayName         string
	EncryptedSecret     []byte
	Tier                string
	Status              AccountStatus
	CircuitState        CircuitState
	ConsecutiveFailures int
	CoolUntil           time.Time
	Capacity            CapacityCounters
	LastUsedAt          time.Time
}

// Usable reports whether the account may currently be selected. It does not
// check per-request capacity headroom — callers check that separately
// against the category's estimated token cost.
func (a *ProviderAccount) Usable() bool {
	if a.Status == AccountDisabled {
		return false
	}
	switch a.CircuitState {
	case CircuitClosed, CircuitHalfOpen:
		return true
	default:
		return false
	}
}
