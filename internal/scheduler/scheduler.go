package scheduler

import (
	"context"
	"time"

	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/enrich"
	"github.com/sirupsen/logrus"
)

// Scheduler periodically re-drives records that never made it past the
// placeholder state — captures whose background enrichment died before
// persisting anything. Enrichment is re-entrant, so re-running is safe.
type Scheduler struct {
	store        store.Store
	orchestrator *enrich.Orchestrator
	log          *logrus.Logger
	interval     time.Duration
	minAge       time.Duration
}

// New creates a scheduler. An interval of zero disables it.
func New(s store.Store, o *enrich.Orchestrator, log *logrus.Logger, interval, minAge time.Duration) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	if minAge == 0 {
		minAge = 10 * time.Minute
	}
	return &Scheduler{
		store:        s,
		orchestrator: o,
		log:          log,
		interval:     interval,
		minAge:       minAge,
	}
}

// Run starts the sweep loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("re-enrichment sweeper disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval).Info("re-enrichment sweeper running")
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("re-enrichment sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	ids, err := s.store.ListStale(ctx, store.StaleOpts{
		OlderThan: time.Now().UTC().Add(-s.minAge),
		Limit:     20,
	})
	if err != nil {
		s.log.WithError(err).Error("stale sweep query failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	s.log.WithField("count", len(ids)).Info("re-driving stale captures")
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.orchestrator.Run(ctx, id); err != nil {
			s.log.WithField("tweet_id", id).WithError(err).Warn("re-enrichment failed")
		}
	}
}
