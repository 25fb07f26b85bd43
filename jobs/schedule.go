package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler periodically enqueues the transaction sync.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

// NewScheduler registers the sync on the given cron spec (e.g. "@every 6h").
func NewScheduler(runner *Runner, spec string, log logrus.FieldLogger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := runner.EnqueueSync(context.Background(), "plaid"); err != nil {
			log.WithError(err).WithField("component", "jobs").Error("enqueue scheduled sync")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for in-flight triggers.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
