package dispatcher

import "sync"

// sessionLocks serializes dispatch turns per session id (SPEC_FULL.md §5):
// a second inbound request for a session already mid-dispatch waits for
// the first to finish rather than racing it through the Session Manager.
// Grounded on pkg/queue/pool.go's activeSessions map[string]context.CancelFunc
// registry, here holding a plain mutex per session instead of a cancel
// func, since this lock's job is ordering, not cancellation.
type sessionLocks struct {
	mu    sync.Mutex
	perID map[string]*sessionSlot
}

type sessionSlot struct {
	mu       sync.Mutex
	refCount int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{perID: make(map[string]*sessionSlot)}
}

// Acquire blocks until sessionID's slot is free, then locks it. The
// returned func releases the slot and must always be called, typically via
// defer immediately after Acquire returns.
func (s *sessionLocks) Acquire(sessionID string) func() {
	s.mu.Lock()
	slot, ok := s.perID[sessionID]
	if !ok {
		slot = &sessionSlot{}
		s.perID[sessionID] = slot
	}
	slot.refCount++
	s.mu.Unlock()

	slot.mu.Lock()
	return func() {
		slot.mu.Unlock()
		s.mu.Lock()
		slot.refCount--
		if slot.refCount == 0 {
			delete(s.perID, sessionID)
		}
		s.mu.Unlock()
	}
}
