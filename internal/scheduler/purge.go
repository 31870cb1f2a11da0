package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"notekeeper/internal/library"
)

// ExpiredLister finds the users that currently hold expired trashed notes.
// The cutoff is a library.TimeLayout string.
type ExpiredLister interface {
	ExpiredUsers(ctx context.Context, cutoff string) ([]primitive.ObjectID, error)
}

// Sweeper periodically purges trashed notes whose scheduled deletion date has
// passed. It runs through the same purge operation the API exposes, so the
// per-user serialization and the deletion notifications apply unchanged.
type Sweeper struct {
	svc      *library.Service
	lister   ExpiredLister
	log      *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewSweeper(svc *library.Service, lister ExpiredLister, log *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		svc:      svc,
		lister:   lister,
		log:      log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Run sweeps once immediately and then on every tick until Stop is called or
// the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("purge sweeper started", "interval", s.interval)

	if err := s.Sweep(ctx); err != nil {
		s.log.Error("purge sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error("purge sweep failed", "error", err)
			}
		}
	}
}

// Sweep purges expired notes for every user that has any. A failure for one
// user is logged and does not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := time.Now()
	ids, err := s.lister.ExpiredUsers(ctx, now.Format(library.TimeLayout))
	if err != nil {
		return err
	}

	for _, id := range ids {
		n, err := s.svc.PurgeExpired(ctx, id.Hex(), now)
		if err != nil {
			s.log.Error("failed to purge expired notes", "error", err, "user", id.Hex())
			continue
		}
		if n > 0 {
			s.log.Info("purged expired notes", "user", id.Hex(), "count", n)
		}
	}
	return nil
}

// Stop ends the Run loop.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
