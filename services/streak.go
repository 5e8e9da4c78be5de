package services

import (
	"context"
	"fmt"
	"time"

	"seikatsu-backend/models"

	"gorm.io/gorm"
)

// ActivityKind selects which records count toward a streak
type ActivityKind string

const (
	ActivityJournal        ActivityKind = "journal"
	ActivityTaskCompletion ActivityKind = "task_completion"
)

// MaxStreakDays caps the backward scan; longer streaks report as 365
const MaxStreakDays = 365

// StreakMilestones trigger a milestone notification when a streak lands exactly on one
var StreakMilestones = map[int]bool{7: true, 14: true, 21: true, 30: true, 60: true, 90: true, 100: true, 200: true, 365: true}

// ActivityDates returns activity timestamps for a user in [from, to)
type ActivityDates interface {
	ActivityTimes(ctx context.Context, userID uint, kind ActivityKind, from, to time.Time) ([]time.Time, error)
}

// GormActivityDates reads journal creation and task completion times
type GormActivityDates struct {
	DB *gorm.DB
}

func (g GormActivityDates) ActivityTimes(ctx context.Context, userID uint, kind ActivityKind, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	db := g.DB.WithContext(ctx)

	switch kind {
	case ActivityJournal:
		err := db.Model(&models.Journal{}).
			Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
			Pluck("created_at", &times).Error
		return times, err
	case ActivityTaskCompletion:
		err := db.Model(&models.Task{}).
			Where("user_id = ? AND is_completed = ? AND completed_at >= ? AND completed_at < ?", userID, true, from, to).
			Pluck("completed_at", &times).Error
		return times, err
	default:
		return nil, invalid("kind", fmt.Sprintf("unknown activity kind %q", kind))
	}
}

// StreakCalculator derives consecutive-day streaks. Read only.
type StreakCalculator struct {
	Dates ActivityDates
}

func NewStreakCalculator(dates ActivityDates) *StreakCalculator {
	return &StreakCalculator{Dates: dates}
}

// CurrentStreak counts consecutive UTC days with activity, ending at asOf's date.
// A day without activity on asOf itself means 0.
func (s *StreakCalculator) CurrentStreak(ctx context.Context, userID uint, kind ActivityKind, asOf time.Time) (int, error) {
	day := utcDay(asOf)
	from := day.AddDate(0, 0, -(MaxStreakDays - 1))
	to := day.AddDate(0, 0, 1)

	times, err := s.Dates.ActivityTimes(ctx, userID, kind, from, to)
	if err != nil {
		return 0, persist("current streak", err)
	}

	active := make(map[time.Time]struct{}, len(times))
	for _, t := range times {
		active[utcDay(t)] = struct{}{}
	}

	streak := 0
	for d := day; streak < MaxStreakDays; d = d.AddDate(0, 0, -1) {
		if _, ok := active[d]; !ok {
			break
		}
		streak++
	}
	return streak, nil
}

// Streaks is both streak kinds plus a motivational line
type Streaks struct {
	JournalStreak        int    `json:"journal_streak"`
	TaskCompletionStreak int    `json:"task_completion_streak"`
	Message              string `json:"message"`
}

func (s *StreakCalculator) Streaks(ctx context.Context, userID uint, asOf time.Time) (*Streaks, error) {
	journal, err := s.CurrentStreak(ctx, userID, ActivityJournal, asOf)
	if err != nil {
		return nil, err
	}
	task, err := s.CurrentStreak(ctx, userID, ActivityTaskCompletion, asOf)
	if err != nil {
		return nil, err
	}
	return &Streaks{
		JournalStreak:        journal,
		TaskCompletionStreak: task,
		Message:              streakMessage(journal, task),
	}, nil
}

func streakMessage(journal, task int) string {
	switch {
	case journal >= 7 && task >= 7:
		return fmt.Sprintf("🔥 Amazing! %d day journal streak and %d day task streak!", journal, task)
	case journal >= 7:
		return fmt.Sprintf("🔥 %d day journal streak! Keep it up!", journal)
	case task >= 7:
		return fmt.Sprintf("🔥 %d day task completion streak! Keep going!", task)
	case journal > 0 || task > 0:
		return "Keep building your streaks! Consistency is key."
	default:
		return "Start your streak today! Small steps lead to big changes."
	}
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
