// Package session is the Session Manager: conversational state scoped to a
// tenant and user, held in a per-instance hot cache backed by the
// relational tier, with Postgres LISTEN/NOTIFY propagating invalidation
// across instances so a stale local copy never wins over a newer write made
// elsewhere.
package session

import (
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// defaultTTL is how long a session stays alive without a new turn before
// expiring, absent an explicit override.
const defaultTTL = 2 * time.Hour

// defaultSnapshotTurns bounds the history Snapshot returns when the caller
// doesn't ask for a specific count.
const defaultSnapshotTurns = 20

// invalidateChannel is the Postgres NOTIFY channel this package LISTENs on;
// every instance that writes a session announces the write here so peer
// instances drop their now-stale hot cache entry instead of serving it.
const invalidateChannel = "session_invalidate"

// View is the bounded-history read model returned by Snapshot.
type View struct {
	Session *models.Session
	Turns   []models.Turn // last min(n, len(history)) turns, in original order
}
