// Package queue runs the orphan-recovery sweep: it finds
// OrchestratorExecution rows stuck in "running" because the process handling
// them crashed before reaching a terminal status, and fails them so they
// stop blocking that session's history and budget accounting.
//
// Dispatcher.Dispatch now does what this package's executor/worker-pool
// machinery used to (synchronously claim and run one request end to end),
// so only the orphan sweep survives — see DESIGN.md for what was dropped
// and why.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/db"
)

// Sweeper periodically scans for orphaned executions and fails them.
type Sweeper struct {
	store  *db.Store
	config *config.QueueConfig

	mu          sync.Mutex
	lastScan    time.Time
	numRecovered int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates an orphan sweeper.
func NewSweeper(store *db.Store, cfg *config.QueueConfig) *Sweeper {
	return &Sweeper{store: store, config: cfg}
}

// Start launches the background sweep loop and returns a func that stops it
// and waits for the loop to exit. Safe to run from every replica — the
// underlying UPDATE is a no-op once a row is no longer "running".
func (s *Sweeper) Start(ctx context.Context) func() {
	if s.cancel != nil {
		return func() {}
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("orphan sweeper started",
		"interval", s.config.OrphanDetectionInterval, "threshold", s.config.OrphanThreshold)

	return s.stop
}

func (s *Sweeper) stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("orphan sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.OrphanThreshold)
	ids, err := s.store.MarkOrphanedExecutionsFailed(ctx, cutoff, "orphaned: no terminal status reached before threshold")
	if err != nil {
		slog.Error("orphan sweep failed", "error", err)
		return
	}

	s.mu.Lock()
	s.lastScan = time.Now()
	s.numRecovered += len(ids)
	s.mu.Unlock()

	if len(ids) > 0 {
		slog.Warn("recovered orphaned executions", "count", len(ids), "ids", ids)
	}
}

// Stats reports the sweeper's last-scan time and lifetime recovery count.
func (s *Sweeper) Stats() (lastScan time.Time, numRecovered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan, s.numRecovered
}
