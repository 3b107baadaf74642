package accountpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/models"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, classifyTerminal, classify(nil))
	assert.Equal(t, classifyRetryable, classify(&fakeRetryableErr{retryable: true}))
	assert.Equal(t, classifyTerminal, classify(&fakeRetryableErr{retryable: false}))
	assert.Equal(t, classifyRateLimited, classify(&fakeRateLimitedErr{}))
}

type fakeRetryableErr struct{ retryable bool }

func (e *fakeRetryableErr) Error() string    { return "retryable-fake" }
func (e *fakeRetryableErr) Retryable() bool  { return e.retryable }

type fakeRateLimitedErr struct{}

func (e *fakeRateLimitedErr) Error() string     { return "rate-limited-fake" }
func (e *fakeRateLimitedErr) RateLimited() bool { return true }

type fakeAuthErr struct{}

func (e *fakeAuthErr) Error() string     { return "auth-fake" }
func (e *fakeAuthErr) AuthFailure() bool { return true }

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, isAuthFailure(&fakeAuthErr{}))
	assert.False(t, isAuthFailure(&fakeRetryableErr{retryable: true}))
}

func TestCooldownFor_GrowsWithRepeatedOpensAndCaps(t *testing.T) {
	base := 5 * time.Minute
	capDur := 30 * time.Minute
	threshold := 5

	assert.Equal(t, base, cooldownFor(5, threshold, base, capDur))
	assert.Equal(t, 2*base, cooldownFor(10, threshold, base, capDur))
	assert.Equal(t, 4*base, cooldownFor(15, threshold, base, capDur))
	assert.Equal(t, capDur, cooldownFor(100, threshold, base, capDur))
}

func account(id string, status models.AccountStatus, circuit models.CircuitState) models.ProviderAccount {
	return models.ProviderAccount{ID: id, TenantID: "t1", Status: status, CircuitState: circuit}
}

func TestSelectAccount_SkipsUnusableAndExcluded(t *testing.T) {
	accounts := []models.ProviderAccount{
		account("disabled", models.AccountDisabled, models.CircuitClosed),
		account("open", models.AccountActive, models.CircuitOpen),
		account("excluded", models.AccountActive, models.CircuitClosed),
		account("ok", models.AccountActive, models.CircuitClosed),
	}
	excluded := map[string]bool{"excluded": true}

	got, ok := selectAccount(accounts, config.SelectionLeastLoaded, excluded, nil, func(models.ProviderAccount) float64 { return 0 })
	assert.True(t, ok)
	assert.Equal(t, "ok", got.ID)
}

func TestSelectAccount_RoundRobinPicksOldestLastUsed(t *testing.T) {
	now := time.Now()
	a := account("a", models.AccountActive, models.CircuitClosed)
	a.LastUsedAt = now
	b := account("b", models.AccountActive, models.CircuitClosed)
	b.LastUsedAt = now.Add(-time.Hour)

	got, ok := selectAccount([]models.ProviderAccount{a, b}, config.SelectionRoundRobin, nil, nil, func(models.ProviderAccount) float64 { return 0 })
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)
}

func TestSelectAccount_TierPreferredPicksHighestTier(t *testing.T) {
	free := account("free", models.AccountActive, models.CircuitClosed)
	free.Tier = "free"
	enterprise := account("ent", models.AccountActive, models.CircuitClosed)
	enterprise.Tier = "enterprise"

	got, ok := selectAccount([]models.ProviderAccount{free, enterprise}, config.SelectionTierPreferred, nil, nil, func(models.ProviderAccount) float64 { return 0 })
	assert.True(t, ok)
	assert.Equal(t, "ent", got.ID)
}

func TestSelectAccount_NoCandidatesReturnsFalse(t *testing.T) {
	accounts := []models.ProviderAccount{account("disabled", models.AccountDisabled, models.CircuitClosed)}
	_, ok := selectAccount(accounts, config.SelectionLeastLoaded, nil, nil, func(models.ProviderAccount) float64 { return 0 })
	assert.False(t, ok)
}

func TestPlaintextDecryptor_RoundTrips(t *testing.T) {
	d := PlaintextDecryptor{}
	got, err := d.Decrypt(nil, []byte("sk-test"))
	assert.NoError(t, err)
	assert.Equal(t, "sk-test", got)
}
