package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/pgnotify"
)

// subscriberBuffer bounds how many events a slow SSE client can lag behind
// before Publish starts dropping on its behalf, so one stalled connection
// can't block every other tenant's publishers.
const subscriberBuffer = 64

type subscriber struct {
	ch chan models.ProgressEvent
}

// Hub is the process-wide event broker: one per orchestrator instance,
// shared by every GET /api/events connection and every dispatcher.
type Hub struct {
	store    *db.Store
	listener *pgnotify.Listener

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{} // tenantID -> live subscribers
}

// NewHub builds a Hub over an already-constructed Store and Listener. The
// Listener must already be running (Listener.Start) before Subscribe is
// called.
func NewHub(store *db.Store, listener *pgnotify.Listener) *Hub {
	return &Hub{store: store, listener: listener, subs: make(map[string]map[*subscriber]struct{})}
}

// Publish persists an event of the given type for tenantID and notifies
// every subscriber, local or on another instance, via Postgres NOTIFY. The
// returned event carries the id assigned by the store, the replay cursor
// GET /api/events uses for Last-Event-Id.
func (h *Hub) Publish(ctx context.Context, tenantID string, eventType models.ProgressEventType, payload any) (models.ProgressEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.ProgressEvent{}, fmt.Errorf("events: marshal payload: %w", err)
	}

	id, err := h.store.AppendProgressEvent(ctx, tenantID, eventType, raw)
	if err != nil {
		return models.ProgressEvent{}, fmt.Errorf("events: persist: %w", err)
	}
	ev := models.ProgressEvent{ID: id, TenantID: tenantID, Type: eventType, Payload: raw}

	notifyBody, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("events: marshal notify envelope: %w", err)
	}
	if err := pgnotify.Notify(ctx, h.store.Pool(), TenantChannel(tenantID), string(notifyBody)); err != nil {
		// The event is already durable; a missed NOTIFY only delays local
		// subscribers until their next replay poll, it never loses data.
		slog.Warn("events: notify failed, subscribers fall back to replay", "tenant_id", tenantID, "error", err)
	}
	return ev, nil
}

// Subscribe registers a new local subscriber for tenantID, LISTENing on its
// channel if this is the first subscriber for that tenant on this
// instance. The returned channel is closed by the returned unsubscribe
// func; callers must drain it to a close rather than abandoning it, so the
// broadcast loop never blocks on a dead reader.
func (h *Hub) Subscribe(ctx context.Context, tenantID string) (<-chan models.ProgressEvent, func(), error) {
	sub := &subscriber{ch: make(chan models.ProgressEvent, subscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[tenantID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[tenantID] = set
	}
	set[sub] = struct{}{}
	first := len(set) == 1
	h.mu.Unlock()

	channel := TenantChannel(tenantID)
	if first {
		h.listener.RegisterHandler(channel, func(payload []byte) {
			var ev models.ProgressEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				slog.Warn("events: discarding malformed notify payload", "tenant_id", tenantID, "error", err)
				return
			}
			h.broadcast(tenantID, ev)
		})
		if err := h.listener.Subscribe(ctx, channel); err != nil {
			h.mu.Lock()
			delete(set, sub)
			h.mu.Unlock()
			return nil, nil, fmt.Errorf("events: listen on tenant channel: %w", err)
		}
	}

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set, ok := h.subs[tenantID]
		if !ok {
			return
		}
		if _, present := set[sub]; !present {
			return
		}
		delete(set, sub)
		close(sub.ch)
		if len(set) == 0 {
			delete(h.subs, tenantID)
			_ = h.listener.Unsubscribe(context.Background(), channel)
		}
	}
	return sub.ch, unsubscribe, nil
}

func (h *Hub) broadcast(tenantID string, ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[tenantID] {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("events: subscriber buffer full, dropping event", "tenant_id", tenantID, "event_id", ev.ID)
		}
	}
}

// Replay loads every event for tenantID after afterID so a reconnecting
// subscriber (Last-Event-Id) can catch up before switching to the live
// channel from Subscribe.
func (h *Hub) Replay(ctx context.Context, tenantID string, afterID int64, limit int) ([]models.ProgressEvent, error) {
	return h.store.ListProgressSince(ctx, tenantID, afterID, limit)
}
