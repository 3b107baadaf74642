package session

import (
	"sync"
	"time"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// hotCache is the per-instance in-process tier standing in for the
// "ephemeral key-value tier" — a sync.Map rather than an external cache,
// since no retrieved example brings a Redis-style client dependency (see
// DESIGN.md). Entries are value copies so callers never observe a mutation
// racing a concurrent writer.
type hotCache struct {
	entries sync.Map // id -> cacheEntry
}

type cacheEntry struct {
	session  models.Session
	cachedAt time.Time
}

func newHotCache() *hotCache {
	return &hotCache{}
}

func (c *hotCache) get(id string) (models.Session, bool) {
	v, ok := c.entries.Load(id)
	if !ok {
		return models.Session{}, false
	}
	entry := v.(cacheEntry)
	if time.Now().After(entry.session.ExpiresAt) {
		c.entries.Delete(id)
		return models.Session{}, false
	}
	return entry.session, true
}

func (c *hotCache) put(sess models.Session) {
	c.entries.Store(sess.ID, cacheEntry{session: sess, cachedAt: time.Now()})
}

func (c *hotCache) invalidate(id string) {
	c.entries.Delete(id)
}
