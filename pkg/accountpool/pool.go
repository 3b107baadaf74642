package accountpool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
)

// Pool implements the Account Pool's selection/breaker/retry machinery
// described in SPEC_FULL.md §4.5. Breaker and cumulative counter state is
// checkpointed to the relational tier (pkg/db) so restarts stay
// consistent; per-minute capacity headroom is tracked only in memory,
// since that's a fast-changing, re-derivable quantity SPEC_FULL.md
// explicitly allows to live in the "ephemeral tier" (see §4.1's
// project-wide substitution note).
type Pool struct {
	store     *db.Store
	cfg       *config.AccountPoolConfig
	decryptor Decryptor

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Pool. decryptor may be nil, in which case
// PlaintextDecryptor is used.
func New(store *db.Store, cfg *config.AccountPoolConfig, decryptor Decryptor) *Pool {
	if decryptor == nil {
		decryptor = PlaintextDecryptor{}
	}
	return &Pool{
		store:     store,
		cfg:       cfg,
		decryptor: decryptor,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Execute runs the §4.5 call sequence: acquire an account, invoke call,
// and on a retryable/rate-limited failure retry against a different
// account up to cfg.MaxAttempts times with exponential backoff. When the
// tenant has no configured accounts it degrades to legacy mode: a single
// ambient credential from provider.APIKeyEnv, no selection or retry.
func (p *Pool) Execute(ctx context.Context, tenantID string, provider *config.LLMProviderConfig, call CallFunc) (Result, error) {
	accounts, err := p.store.ListUsableAccounts(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("accountpool: list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return p.executeLegacy(ctx, provider, call)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.BackoffBase
	bo.Multiplier = p.cfg.BackoffFactor
	bo.MaxInterval = p.cfg.BackoffCap
	bo.RandomizationFactor = p.cfg.BackoffJitter

	excluded := make(map[string]bool, p.cfg.MaxAttempts)
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		account, err := p.awaitAccount(ctx, accounts, excluded)
		if err != nil {
			return Result{Attempts: attempt - 1}, err
		}

		p.reserve(account)

		apiKey, err := p.decryptor.Decrypt(ctx, account.EncryptedSecret)
		if err != nil {
			excluded[account.ID] = true
			lastErr = fmt.Errorf("accountpool: decrypt credential: %w", err)
			continue
		}

		usage, callErr := call(ctx, apiKey)
		if callErr == nil {
			if err := p.store.RecordAccountSuccess(ctx, account.ID, time.Now()); err != nil {
				slog.Warn("accountpool: record success failed", "account_id", account.ID, "error", err)
			}
			return Result{AccountID: account.ID, Usage: usage, Outcome: OutcomeSuccess, Attempts: attempt}, nil
		}

		lastErr = callErr
		excluded[account.ID] = true

		cls := classify(callErr)
		coolUntil := time.Now().Add(cooldownFor(account.ConsecutiveFailures+1, p.cfg.BreakerThreshold, p.cfg.CooldownBase, p.cfg.CooldownCap))
		if err := p.store.RecordAccountFailure(ctx, account.ID, p.cfg.BreakerThreshold, coolUntil); err != nil {
			slog.Warn("accountpool: record failure failed", "account_id", account.ID, "error", err)
		}

		if cls == classifyTerminal || isAuthFailure(callErr) {
			return Result{AccountID: account.ID, Outcome: OutcomeFailed, Attempts: attempt}, lastErr
		}

		if attempt < p.cfg.MaxAttempts {
			select {
			case <-time.After(bo.NextBackOff()):
			case <-ctx.Done():
				return Result{AccountID: account.ID, Outcome: OutcomeFailed, Attempts: attempt}, ctx.Err()
			}
		}
	}

	outcome := OutcomeFailed
	if classify(lastErr) == classifyRateLimited {
		outcome = OutcomeRateLimited
	}
	return Result{Outcome: outcome, Attempts: p.cfg.MaxAttempts}, fmt.Errorf("%w: %v", ErrRetryBudgetExhausted, lastErr)
}

// selectionPollInterval is how often awaitAccount rechecks capacity
// headroom while waiting out the selection timeout for a rate-limited
// account's token bucket to refill.
const selectionPollInterval = 100 * time.Millisecond

// awaitAccount selects an account, retrying within the selection timeout
// when every usable account is currently rate-limited by the in-memory
// headroom check (their limiter may free up within the window).
// ErrNoUsableAccounts is returned immediately when no account is usable
// at all, since waiting cannot help there.
func (p *Pool) awaitAccount(ctx context.Context, accounts []models.ProviderAccount, excluded map[string]bool) (models.ProviderAccount, error) {
	deadline := time.Now().Add(p.cfg.SelectionTimeout)
	for {
		account, ok := selectAccount(accounts, p.cfg.SelectionPolicy, excluded, p.hasHeadroom, p.loadRatio)
		if ok {
			return account, nil
		}
		if _, anyUsable := selectAccount(accounts, p.cfg.SelectionPolicy, excluded, nil, p.loadRatio); !anyUsable {
			return models.ProviderAccount{}, ErrNoUsableAccounts
		}
		if time.Now().After(deadline) {
			return models.ProviderAccount{}, ErrSelectionTimeout
		}
		select {
		case <-time.After(selectionPollInterval):
		case <-ctx.Done():
			return models.ProviderAccount{}, ctx.Err()
		}
	}
}

func (p *Pool) executeLegacy(ctx context.Context, provider *config.LLMProviderConfig, call CallFunc) (Result, error) {
	apiKey := os.Getenv(provider.APIKeyEnv)
	usage, err := call(ctx, apiKey)
	if err != nil {
		outcome := OutcomeFailed
		if classify(err) == classifyRateLimited {
			outcome = OutcomeRateLimited
		}
		return Result{Outcome: outcome, Attempts: 1}, err
	}
	return Result{Usage: usage, Outcome: OutcomeSuccess, Attempts: 1}, nil
}

// hasHeadroom peeks at the in-memory RPM limiter for the account without
// consuming a token — selectAccount calls this for every candidate it
// considers, not just the one eventually chosen, so consuming here would
// charge accounts that were never actually used. An account with no
// configured ceiling always has headroom.
func (p *Pool) hasHeadroom(a models.ProviderAccount) bool {
	if a.Capacity.RequestsPerMinute <= 0 {
		return true
	}
	return p.limiterFor(a).Tokens() >= 1
}

// reserve consumes one token from the account's limiter once it has
// actually been chosen, so concurrent callers within this process see the
// reservation immediately rather than waiting for a relational round-trip.
func (p *Pool) reserve(a models.ProviderAccount) {
	if a.Capacity.RequestsPerMinute <= 0 {
		return
	}
	p.limiterFor(a).Allow()
}

func (p *Pool) limiterFor(a models.ProviderAccount) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := accountKey(a)
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.Capacity.RequestsPerMinute)), a.Capacity.RequestsPerMinute)
		p.limiters[key] = l
	}
	return l
}

// loadRatio exposes the limiter's current token depletion as the
// least-loaded policy's sort key: a nearly-exhausted limiter has few
// tokens left (close to 0), a fresh one has close to its burst size.
func (p *Pool) loadRatio(a models.ProviderAccount) float64 {
	if a.Capacity.RequestsPerMinute <= 0 {
		return 0
	}
	l := p.limiterFor(a)
	remaining := l.Tokens()
	used := float64(a.Capacity.RequestsPerMinute) - remaining
	if used < 0 {
		used = 0
	}
	return used / float64(a.Capacity.RequestsPerMinute)
}

// ReconcileCircuits moves any account whose cooldown has elapsed from
// open to half-open, letting the next selection attempt it as a probe.
// Intended to be called periodically by a background sweep (pkg/cleanup
// or a dedicated ticker in cmd/orchestrator).
func (p *Pool) ReconcileCircuits(ctx context.Context, now time.Time) (int64, error) {
	return p.store.HalfOpenExpiredCircuits(ctx, now)
}
