// Package cleanup enforces the retention policies SPEC_FULL.md §4.7/§6
// name: expiring idle sessions, purging old OrchestratorExecution rows, and
// trimming each tenant's progress-event stream to its rolling TTL.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/db"
)

// Service periodically enforces retention policies:
//   - deletes sessions past their idle TTL
//   - soft-deletes OrchestratorExecution rows past their retention window
//   - purges progress_events rows past the stream's TTL
//
// All operations are idempotent and safe to run from multiple replicas,
// built on a ticker-loop shape, adapted
// from ent-backed services.SessionService/EventService to *db.Store
// directly — this data model has no service layer between the cleanup
// sweep and the repository.
type Service struct {
	store  *db.Store
	config *config.RetentionConfig

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(store *db.Store, cfg *config.RetentionConfig) *Service {
	return &Service{store: store, config: cfg}
}

// Start launches the background cleanup loop and returns a func that stops
// it and waits for the loop to exit.
func (s *Service) Start(ctx context.Context) func() {
	if s.cancel != nil {
		return func() {}
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"session_ttl", s.config.SessionTTL,
		"event_ttl", s.config.EventTTL,
		"execution_retention_days", s.config.ExecutionRetentionDays,
		"interval", s.config.CleanupInterval)

	return s.Stop
}

// Stop signals the cleanup loop to exit and waits for it to finish. Safe to
// call multiple times.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.deleteExpiredSessions(ctx)
	s.purgeOldExecutions(ctx)
	s.purgeOldProgressEvents(ctx)
}

func (s *Service) deleteExpiredSessions(ctx context.Context) {
	count, err := s.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		slog.Error("retention: delete expired sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: deleted expired sessions", "count", count)
	}
}

func (s *Service) purgeOldExecutions(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.ExecutionRetentionDays)
	count, err := s.store.SoftDeleteExecutionsOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: purge old executions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: soft-deleted old executions", "count", count)
	}
}

func (s *Service) purgeOldProgressEvents(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.EventTTL)
	count, err := s.store.DeleteProgressEventsOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: purge old progress events failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged old progress events", "count", count)
	}
}
