// Package scheduler runs periodic maintenance of the enforcement journal.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes journal entries older than a cutoff.
type Pruner interface {
	PruneActions(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler periodically removes journal entries past their retention.
type Scheduler struct {
	store     Pruner
	retention time.Duration
	log       *slog.Logger
	tick      time.Duration
	now       func() time.Time
}

// New creates a Scheduler that keeps retention worth of journal entries.
func New(store Pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		retention: retention,
		log:       log,
		tick:      1 * time.Hour,
		now:       time.Now,
	}
}

// SetTickInterval overrides the default 1-hour interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.prune(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

func (s *Scheduler) prune(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.store.PruneActions(ctx, cutoff)
	if err != nil {
		s.log.Error("prune journal", "before", cutoff, "error", err)
		return
	}
	if n > 0 {
		s.log.Info("pruned journal", "before", cutoff, "count", n)
	}
}
