package services

import (
	"context"

	"seikatsu-backend/metrics"

	"github.com/sirupsen/logrus"
)

// Notifier delivers level-up and streak milestone signals. Best effort.
type Notifier interface {
	NotifyLevelUp(ctx context.Context, userID uint, level int) error
	NotifyStreakMilestone(ctx context.Context, userID uint, days int) error
}

// LogNotifier only logs; used when no broker is configured
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) NotifyLevelUp(_ context.Context, userID uint, level int) error {
	n.Log.WithFields(logrus.Fields{"user_id": userID, "level": level}).
		Infof("🎉 Level Up! Congratulations! You've reached level %d!", level)
	return nil
}

func (n LogNotifier) NotifyStreakMilestone(_ context.Context, userID uint, days int) error {
	n.Log.WithFields(logrus.Fields{"user_id": userID, "days": days}).
		Infof("🔥 Streak Milestone! You've reached a %d-day streak! Keep it going!", days)
	return nil
}

// safeNotifier swallows and logs notifier failures (including panics) so they never fail the caller
type safeNotifier struct {
	inner Notifier
	log   logrus.FieldLogger
}

func (s safeNotifier) levelUp(ctx context.Context, userID uint, level int) {
	defer s.catch("level_up", userID)
	if err := s.inner.NotifyLevelUp(ctx, userID, level); err != nil {
		metrics.RecordNotificationFailure("level_up")
		s.log.WithError(err).WithField("user_id", userID).Warn("level-up notification failed")
	}
}

func (s safeNotifier) streakMilestone(ctx context.Context, userID uint, days int) {
	defer s.catch("streak_milestone", userID)
	if err := s.inner.NotifyStreakMilestone(ctx, userID, days); err != nil {
		metrics.RecordNotificationFailure("streak_milestone")
		s.log.WithError(err).WithField("user_id", userID).Warn("streak milestone notification failed")
	}
}

func (s safeNotifier) catch(kind string, userID uint) {
	if r := recover(); r != nil {
		metrics.RecordNotificationFailure(kind)
		s.log.WithFields(logrus.Fields{"user_id": userID, "panic": r}).Error("notifier panicked")
	}
}
