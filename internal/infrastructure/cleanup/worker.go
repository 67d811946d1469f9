// Package cleanup provides the background worker that sweeps expired
// Instagram sessions out of storage.
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
)

// ExpiredSessionStore is the storage the worker sweeps.
type ExpiredSessionStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Worker periodically removes expired sessions. Sessions are also cleared
// lazily when a visitor checks their connection; the sweep catches visitors
// who never come back.
type Worker struct {
	store       ExpiredSessionStore
	config      *Config
	now         func() time.Time
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(store ExpiredSessionStore, config *Config, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Worker {
	if config == nil {
		config = NewConfig()
	}
	return &Worker{
		store:       store,
		config:      config,
		now:         time.Now,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Start runs a sweep every configured interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if w.config.Interval <= 0 {
		w.logger.System().Info("Session cleanup worker disabled")
		return
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.System().Info("Session cleanup worker started", "interval", w.config.Interval, "verbose", w.config.Verbose)

	for {
		select {
		case <-ctx.Done():
			w.logger.System().Info("Session cleanup worker stopping")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep performs one cleanup pass and returns how many sessions it removed.
func (w *Worker) Sweep(ctx context.Context) int64 {
	start := time.Now()
	marker := w.perfTracker.StartOperation("session_cleanup")
	defer marker.Complete()

	removed, err := w.store.DeleteExpired(ctx, w.now().UTC())
	if err != nil {
		marker.SetError(err)
		w.logger.LogError(logging.ChannelSystem, "session_cleanup", err, nil)
		return 0
	}
	marker.SetSuccess(true)

	duration := time.Since(start)
	if removed > 0 {
		w.logger.System().Info("Session cleanup finished", "removed", removed, "duration", duration)
	} else if w.config.Verbose {
		w.logger.System().Info("Session cleanup completed - no expired sessions found", "duration", duration)
	}
	return removed
}
