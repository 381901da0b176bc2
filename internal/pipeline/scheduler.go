package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs every enabled job.
type Sweeper interface {
	RunAll(ctx context.Context) ([]Result, error)
}

// BackfillFunc geocodes stored listings that still lack coordinates and
// returns how many it updated.
type BackfillFunc func(ctx context.Context) (int, error)

// Scheduler runs sweeps and geocode backfills periodically.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	backfill BackfillFunc
	log      *slog.Logger

	// ctx is the parent of every scheduled task; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler schedules a sweep every sweepInterval and, when backfill is
// set and backfillInterval is positive, a geocode backfill.
func NewScheduler(
	sweeper Sweeper,
	backfill BackfillFunc,
	sweepInterval time.Duration,
	backfillInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		backfill: backfill,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := c.AddFunc("@every "+sweepInterval.String(), s.runSweep); err != nil {
		cancel()
		return nil, err
	}

	if backfill != nil && backfillInterval > 0 {
		if _, err := c.AddFunc("@every "+backfillInterval.String(), s.runBackfill); err != nil {
			cancel()
			return nil, err
		}
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler and cancels running tasks. The returned context
// is done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	done := s.cron.Stop()
	s.cancel()
	return done
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSweep() {
	results, err := s.sweeper.RunAll(s.ctx)
	if err != nil {
		s.log.Error("scheduled sweep failed", "error", err)
		return
	}
	var failed int
	for _, r := range results {
		if r.Kind == OutcomeFailed && !r.Skipped {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warn("scheduled sweep had failures", "failed", failed, "runs", len(results))
	}
}

func (s *Scheduler) runBackfill() {
	n, err := s.backfill(s.ctx)
	if err != nil {
		s.log.Error("geocode backfill failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("geocode backfill updated listings", "count", n)
	}
}
