// Package events is the tenant-scoped progress-event pub/sub that backs
// GET /api/events (SPEC_FULL.md §6). Publish persists an event through
// pkg/db and fans it out to local subscribers; pkg/pgnotify carries the
// fan-out across orchestrator instances so every replica's subscribers see
// every tenant's events regardless of which instance the writer ran on.
//
// Grounded on the ConnectionManager/EventPublisher split (one broker per
// process, a dedicated LISTEN connection feeding per-client channels) but
// rebuilt on pkg/models.ProgressEvent instead of the original
// timeline/chat/stage payload vocabulary, and on the already generic
// pkg/pgnotify.Listener instead of a second bespoke LISTEN engine.
package events

// TenantChannel returns the Postgres NOTIFY/LISTEN channel name carrying a
// tenant's progress-event stream.
func TenantChannel(tenantID string) string {
	return "events.tenant." + tenantID
}
