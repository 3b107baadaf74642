package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/pgnotify"
)

// Manager is the Session Manager: GetOrCreate/AppendTurn/Snapshot over a
// hot cache backed by the relational tier, per SPEC_FULL.md §4.1.
type Manager struct {
	store    *db.Store
	cache    *hotCache
	listener *pgnotify.Listener // nil when cross-instance invalidation is disabled
	ttl      time.Duration
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithTTL overrides the default session idle TTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// NewManager builds a Manager over store. Call EnableInvalidation
// separately to wire cross-instance cache invalidation once a
// pgnotify.Listener is running.
func NewManager(store *db.Store, opts ...Option) *Manager {
	m := &Manager{store: store, cache: newHotCache(), ttl: defaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnableInvalidation registers this Manager's cache-invalidation handler on
// listener and subscribes to invalidateChannel. Safe to call once during
// startup, after the listener's connection is established.
func (m *Manager) EnableInvalidation(ctx context.Context, listener *pgnotify.Listener) error {
	listener.RegisterHandler(invalidateChannel, func(payload []byte) {
		m.cache.invalidate(string(payload))
	})
	if err := listener.Subscribe(ctx, invalidateChannel); err != nil {
		return fmt.Errorf("session: subscribe invalidation channel: %w", err)
	}
	m.listener = listener
	return nil
}

// GetOrCreate returns the caller's session, rehydrating from the relational
// tier on a cache miss and creating a new session on a true miss. When
// externalThreadKey is non-empty it is used as the secondary lookup so a
// reply in the same chat thread resumes the existing conversation.
func (m *Manager) GetOrCreate(ctx context.Context, tenantID, userID string, source models.SessionSource, externalThreadKey string) (*models.Session, error) {
	if externalThreadKey != "" {
		if sess, err := m.bySessionOrThreadKey(ctx, tenantID, "", externalThreadKey); err == nil {
			return sess, nil
		} else if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	sess := models.Session{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		Source:    source,
		State:     map[string]any{},
		Metadata:  map[string]any{},
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if externalThreadKey != "" {
		sess.Metadata["thread_key"] = externalThreadKey
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	m.cache.put(sess)
	return &sess, nil
}

// bySessionOrThreadKey resolves a session by id or by thread key, cache
// first, falling back to the relational tier on miss. Exactly one of id or
// threadKey should be non-empty.
func (m *Manager) bySessionOrThreadKey(ctx context.Context, tenantID, id, threadKey string) (*models.Session, error) {
	if id != "" {
		if sess, ok := m.cache.get(id); ok {
			return &sess, nil
		}
	}

	var sess models.Session
	var err error
	if id != "" {
		sess, err = m.store.GetSession(ctx, tenantID, id)
	} else {
		sess, err = m.store.GetSessionByThreadKey(ctx, tenantID, threadKey)
	}
	if err != nil {
		return nil, err
	}
	m.cache.put(sess)
	return &sess, nil
}

// Get returns a session by id, tolerating a stale or absent hot cache by
// falling back to the relational tier. Failure semantics: if the relational
// tier is also unavailable, the error propagates — the caller degrades
// further up the stack.
func (m *Manager) Get(ctx context.Context, tenantID, id string) (*models.Session, error) {
	return m.bySessionOrThreadKey(ctx, tenantID, id, "")
}

// AppendTurn atomically appends a turn to a session's history, refreshes
// its TTL, and updates both tiers write-through: the relational tier first
// (it is the system of record), then the hot cache, then a cross-instance
// invalidation NOTIFY so other instances drop any copy they cached before
// this write.
func (m *Manager) AppendTurn(ctx context.Context, tenantID, id string, turn models.Turn) error {
	newExpiry := time.Now().Add(m.ttl)
	if err := m.store.AppendTurn(ctx, tenantID, id, turn, newExpiry); err != nil {
		return fmt.Errorf("session: append turn: %w", err)
	}

	sess, err := m.store.GetSession(ctx, tenantID, id)
	if err != nil {
		slog.Warn("session: re-read after append turn failed, invalidating cache only", "session_id", id, "error", err)
		m.cache.invalidate(id)
	} else {
		m.cache.put(sess)
	}

	m.notifyInvalidation(ctx, id)
	return nil
}

// UpdateState replaces a session's opaque state blob, write-through like AppendTurn.
func (m *Manager) UpdateState(ctx context.Context, tenantID, id string, state map[string]any) error {
	if err := m.store.UpdateSessionState(ctx, tenantID, id, state); err != nil {
		return fmt.Errorf("session: update state: %w", err)
	}
	sess, err := m.store.GetSession(ctx, tenantID, id)
	if err == nil {
		m.cache.put(sess)
	} else {
		m.cache.invalidate(id)
	}
	m.notifyInvalidation(ctx, id)
	return nil
}

func (m *Manager) notifyInvalidation(ctx context.Context, id string) {
	if err := pgnotify.Notify(ctx, m.store.Pool(), invalidateChannel, id); err != nil {
		slog.Warn("session: cross-instance invalidation notify failed", "session_id", id, "error", err)
	}
}

// Snapshot returns the last n turns of a session's history (default
// defaultSnapshotTurns when n <= 0), in original order.
func (m *Manager) Snapshot(ctx context.Context, tenantID, id string, n int) (*View, error) {
	sess, err := m.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = defaultSnapshotTurns
	}
	turns := sess.History
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return &View{Session: sess, Turns: turns}, nil
}
