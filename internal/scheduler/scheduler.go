package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/matkukla/DonorCRM/internal/service"
)

// Sweeper is the job the scheduler runs.
type Sweeper interface {
	SweepLatePledges(ctx context.Context) (service.SweepResult, error)
}

// Scheduler runs the late pledge sweep on a cron schedule. A run that is
// still in progress when the next one fires causes that one to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	ctx     context.Context
}

func New(schedule string, sweeper Sweeper) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		ctx:     context.Background(),
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("can't create sweep task for schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for an
// in-flight sweep to finish. Cancelling ctx also cuts a running sweep short.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	log.WithField("next", s.cron.Entries()[0].Next).Info("late pledge sweep scheduled")

	<-ctx.Done()
	log.Info("shutting down cron")
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) runOnce() {
	res, err := s.sweeper.SweepLatePledges(s.ctx)
	if err != nil {
		log.WithError(err).WithField("failed", res.Failed).Error("scheduled late sweep failed")
	}
}
