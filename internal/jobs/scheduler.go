package jobs

import (
	"reverie/internal/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs background maintenance on cron schedules. Currently the only
// job is the subscription expiry sweep.
type Scheduler struct {
	cron   *cron.Cron
	subSvc *service.SubscriptionService
}

func NewScheduler(subSvc *service.SubscriptionService) *Scheduler {
	return &Scheduler{cron: cron.New(), subSvc: subSvc}
}

// Start registers the expiry sweep on the given cron spec and starts the
// scheduler. The sweep also runs once immediately so a restart never leaves
// lapsed subscriptions active until the next tick.
func (s *Scheduler) Start(sweepSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, s.sweepExpired); err != nil {
		return err
	}
	go s.sweepExpired()
	s.cron.Start()
	log.Infof("[Jobs] scheduler started, expiry sweep at %q", sweepSpec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) sweepExpired() {
	n, err := s.subSvc.CheckAndExpireSubscriptions()
	if err != nil {
		log.Errorf("[Jobs] expiry sweep: %v", err)
		return
	}
	if n > 0 {
		log.Infof("[Jobs] expiry sweep transitioned %d subscriptions", n)
	}
}
