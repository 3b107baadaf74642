// Package accountpool implements the Account Pool per SPEC_FULL.md §4.5:
// LLM credential selection, per-account capacity limiting, a circuit
// breaker, and cross-account retry on transient provider failures. Nothing
// elsewhere implements this directly, since every provider call there goes
// through a Python gRPC sidecar rather than managing credentials itself —
// so the breaker/retry state machine is grounded on pkg/mcp/recovery.go's
// RecoveryAction/ClassifyError pattern and the reservation-counter idiom on
// pkg/agent/orchestrator/runner.go's mutex-protected SubAgentRunner.
package accountpool

import (
	"context"
	"errors"
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

var (
	ErrNoUsableAccounts     = errors.New("accountpool: no usable accounts")
	ErrSelectionTimeout     = errors.New("accountpool: selection timed out")
	ErrRetryBudgetExhausted = errors.New("accountpool: retry budget exhausted")
)

// Outcome classifies how an Execute call concluded.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailed      Outcome = "failed"
)

// Usage is the token accounting a single provider call reports back.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CachedTokens int
}

// Result is what Execute returns: the account actually used, usage
// figures from whichever attempt succeeded (zero on total failure), and
// the outcome classification the dispatcher uses to decide how to
// escalate to the user.
type Result struct {
	AccountID string
	Usage     Usage
	Outcome   Outcome
	Attempts  int
}

// CallFunc performs the actual provider invocation using a decrypted
// credential. Implementations should return a *ClassifiedError (or let a
// *llmclient.HTTPError flow through transparently — classify() handles
// both) so Execute can tell transient failures from terminal ones.
type CallFunc func(ctx context.Context, apiKey string) (Usage, error)

// Decryptor turns a ProviderAccount's opaque EncryptedSecret into the
// plaintext credential passed to CallFunc. The pack carries no KMS/crypto
// client for this; see DESIGN.md for why the boundary is drawn here
// instead of inventing a cipher.
type Decryptor interface {
	Decrypt(ctx context.Context, secret []byte) (string, error)
}

// PlaintextDecryptor is the pass-through Decryptor for deployments that
// store already-plaintext credentials (e.g. behind an external secrets
// manager that decrypts before the row ever reaches this process).
type PlaintextDecryptor struct{}

func (PlaintextDecryptor) Decrypt(_ context.Context, secret []byte) (string, error) {
	return string(secret), nil
}

// classifyErr tells Execute whether an error from CallFunc is worth
// retrying against a different account, mirroring
// pkg/mcp/recovery.go's ClassifyError: timeouts and auth/schema errors
// are terminal, everything else (rate limits, 5xx, network) is retryable.
type classification int

const (
	classifyTerminal classification = iota
	classifyRetryable
	classifyRateLimited
)

// retryable is implemented by errors (e.g. *llmclient.HTTPError) that can
// tell Execute whether they're worth retrying against a different account.
type retryable interface {
	Retryable() bool
}

// rateLimited is implemented by errors that specifically signal HTTP 429
// or an equivalent provider rate-limit response.
type rateLimited interface {
	RateLimited() bool
}

func classify(err error) classification {
	if err == nil {
		return classifyTerminal
	}
	var rl rateLimited
	if errors.As(err, &rl) && rl.RateLimited() {
		return classifyRateLimited
	}
	var r retryable
	if errors.As(err, &r) && r.Retryable() {
		return classifyRetryable
	}
	return classifyTerminal
}

// isAuthFailure reports whether an error should open the breaker
// immediately regardless of the consecutive-failure threshold (§4.5 step 8).
type authFailure interface {
	AuthFailure() bool
}

func isAuthFailure(err error) bool {
	var af authFailure
	return errors.As(err, &af) && af.AuthFailure()
}

// accountKey scopes a rate limiter / round-robin bookkeeping entry to a
// single account, never shared across tenants even if ids collide (they
// won't, UUIDs are globally unique, but this keeps intent explicit).
func accountKey(a models.ProviderAccount) string { return a.TenantID + ":" + a.ID }

// cooldownFor grows the open-circuit cooldown with repeated opens, capped,
// per §4.5's breaker spec ("grows with repeated opens up to 30 minutes").
// consecutiveFailures beyond the threshold is used as the growth signal
// since the schema doesn't track a separate "times opened" counter.
func cooldownFor(consecutiveFailures, threshold int, base, capDur time.Duration) time.Duration {
	if threshold <= 0 {
		threshold = 1
	}
	opens := consecutiveFailures / threshold
	if opens < 1 {
		opens = 1
	}
	d := base
	for i := 1; i < opens; i++ {
		d *= 2
		if d >= capDur {
			return capDur
		}
	}
	if d > capDur {
		return capDur
	}
	return d
}
