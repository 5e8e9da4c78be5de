// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic maintenance: re-deriving stored levels from XP
type Scheduler struct {
	Ledger   *XPLedger
	Interval time.Duration
	Log      logrus.FieldLogger

	sched gocron.Scheduler
}

func NewScheduler(ledger *XPLedger, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{Ledger: ledger, Interval: interval, Log: log.WithField("component", "scheduler")}
}

// Start registers the jobs and starts the scheduler. Jobs stop when ctx is done or Shutdown is called.
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.Interval),
		gocron.NewTask(func() { s.RecalculateLevels(ctx) }),
		gocron.WithName("recalculate-levels"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.sched = sched
	sched.Start()
	s.Log.WithField("interval", s.Interval.String()).Info("⏰ scheduler started")
	return nil
}

// RecalculateLevels is the job body; errors are logged, the next run retries
func (s *Scheduler) RecalculateLevels(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.Ledger.RecalculateLevels(ctx)
	if err != nil {
		s.Log.WithError(err).Error("[Scheduler] level recalculation failed")
		return
	}
	entry := s.Log.WithFields(logrus.Fields{
		"user_stats_checked": report.UserStatsChecked,
		"user_stats_fixed":   report.UserStatsFixed,
		"categories_checked": report.CategoriesChecked,
		"categories_fixed":   report.CategoriesFixed,
	})
	if report.UserStatsFixed > 0 || report.CategoriesFixed > 0 {
		entry.Warn("[Scheduler] repaired drifted levels")
		return
	}
	entry.Debug("[Scheduler] levels consistent")
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
