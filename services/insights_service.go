package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"seikatsu-backend/models"

	"gorm.io/gorm"
)

// InsightsService derives read-only analytics from journals, tasks and XP state
type InsightsService struct {
	DB         *gorm.DB
	StreakCalc *StreakCalculator
	now        func() time.Time
}

func NewInsightsService(db *gorm.DB, streaks *StreakCalculator) *InsightsService {
	return &InsightsService{DB: db, StreakCalc: streaks, now: func() time.Time { return time.Now().UTC() }}
}

func (s *InsightsService) Streaks(ctx context.Context, userID uint) (*Streaks, error) {
	return s.StreakCalc.Streaks(ctx, userID, s.now())
}

type ActivityStats struct {
	TotalJournals  int64   `json:"total_journals"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentLevel   int     `json:"current_level"`
	TotalXP        int64   `json:"total_xp"`
}

func (s *InsightsService) ActivityStats(ctx context.Context, userID uint) (*ActivityStats, error) {
	db := s.DB.WithContext(ctx)
	st := &ActivityStats{CurrentLevel: 1}

	if err := db.Model(&models.Journal{}).Where("user_id = ?", userID).Count(&st.TotalJournals).Error; err != nil {
		return nil, persist("activity stats", err)
	}
	if err := db.Model(&models.Task{}).Where("user_id = ?", userID).Count(&st.TotalTasks).Error; err != nil {
		return nil, persist("activity stats", err)
	}
	if err := db.Model(&models.Task{}).Where("user_id = ? AND is_completed = ?", userID, true).Count(&st.CompletedTasks).Error; err != nil {
		return nil, persist("activity stats", err)
	}
	if st.TotalTasks > 0 {
		st.CompletionRate = round2(float64(st.CompletedTasks) / float64(st.TotalTasks) * 100)
	}

	var stats models.UserStats
	res := db.Where("user_id = ?", userID).Limit(1).Find(&stats)
	if res.Error != nil {
		return nil, persist("activity stats", res.Error)
	}
	if res.RowsAffected > 0 {
		st.CurrentLevel = stats.Level
		st.TotalXP = stats.TotalXP
	}
	return st, nil
}

type RadarData struct {
	Categories       []string  `json:"categories"`
	Levels           []int     `json:"levels"`
	XP               []int64   `json:"xp"`
	NormalizedScores []float64 `json:"normalized_scores"`
}

// Radar is the per-category level spread, normalized to 0-100 against max(highest level, 10)
func (s *InsightsService) Radar(ctx context.Context, userID uint) (*RadarData, error) {
	var levels []models.CategoryLevel
	if err := s.DB.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Order("category_id ASC").
		Find(&levels).Error; err != nil {
		return nil, persist("radar", err)
	}

	out := &RadarData{Categories: []string{}, Levels: []int{}, XP: []int64{}, NormalizedScores: []float64{}}
	maxLevel := 10
	for _, l := range levels {
		if l.Level > maxLevel {
			maxLevel = l.Level
		}
	}
	for _, l := range levels {
		name := ""
		if l.Category != nil {
			name = l.Category.Name
		}
		out.Categories = append(out.Categories, name)
		out.Levels = append(out.Levels, l.Level)
		out.XP = append(out.XP, l.XP)
		out.NormalizedScores = append(out.NormalizedScores, round2(float64(l.Level)/float64(maxLevel)*100))
	}
	return out, nil
}

var (
	positiveMoods = map[string]bool{"happy": true, "great": true, "excited": true, "joyful": true, "content": true, "peaceful": true}
	negativeMoods = map[string]bool{"sad": true, "angry": true, "anxious": true, "stressed": true, "frustrated": true, "tired": true}
)

type MoodShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type MoodPoint struct {
	Date time.Time `json:"date"`
	Mood string    `json:"mood"`
}

type MoodTrend struct {
	PeriodDays       int                  `json:"period_days"`
	TotalEntries     int                  `json:"total_entries"`
	MoodDistribution map[string]MoodShare `json:"mood_distribution"`
	MostCommonMood   *string              `json:"most_common_mood"`
	Trend            string               `json:"trend"`
	RecentMoods      []MoodPoint          `json:"recent_moods"`
}

// MoodTrend compares the mood score of the older half of the period with the newer half
func (s *InsightsService) MoodTrend(ctx context.Context, userID uint, days int) (*MoodTrend, error) {
	if days < 1 {
		days = 30
	}
	var journals []models.Journal
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND mood IS NOT NULL AND mood <> ''", userID, s.now().AddDate(0, 0, -days)).
		Order("created_at ASC").
		Find(&journals).Error; err != nil {
		return nil, persist("mood trend", err)
	}

	out := &MoodTrend{
		PeriodDays:       days,
		TotalEntries:     len(journals),
		MoodDistribution: map[string]MoodShare{},
		RecentMoods:      []MoodPoint{},
		Trend:            "Not enough data",
	}
	if len(journals) == 0 {
		return out, nil
	}

	moods := make([]string, 0, len(journals))
	counts := map[string]int{}
	for _, j := range journals {
		m := strings.ToLower(*j.Mood)
		moods = append(moods, m)
		counts[m]++
	}
	best, bestN := "", 0
	for m, n := range counts {
		out.MoodDistribution[m] = MoodShare{Count: n, Percentage: round2(float64(n) / float64(len(moods)) * 100)}
		if n > bestN || (n == bestN && m < best) {
			best, bestN = m, n
		}
	}
	out.MostCommonMood = &best

	mid := len(moods) / 2
	out.Trend = moodTrend(moods[:mid], moods[mid:])

	start := len(journals) - 10
	if start < 0 {
		start = 0
	}
	for i := len(journals) - 1; i >= start; i-- {
		out.RecentMoods = append(out.RecentMoods, MoodPoint{Date: journals[i].CreatedAt, Mood: moods[i]})
	}
	return out, nil
}

func moodScore(moods []string) float64 {
	score := 0
	for _, m := range moods {
		switch {
		case positiveMoods[m]:
			score++
		case negativeMoods[m]:
			score--
		}
	}
	return float64(score) / float64(len(moods))
}

func moodTrend(first, second []string) string {
	if len(first) == 0 || len(second) == 0 {
		return "Not enough data to determine trend"
	}
	diff := moodScore(second) - moodScore(first)
	switch {
	case diff > 0.2:
		return "Improving - Your mood seems to be getting better! 📈"
	case diff < -0.2:
		return "Declining - Consider self-care activities 💙"
	default:
		return "Stable - Maintaining consistent emotional patterns"
	}
}

type CategoryActivity struct {
	Name string `json:"name"`
	XP   int64  `json:"xp"`
}

type WeeklySummary struct {
	Period          string             `json:"period"`
	JournalsWritten int64              `json:"journals_written"`
	TasksCreated    int                `json:"tasks_created"`
	TasksCompleted  int                `json:"tasks_completed"`
	CompletionRate  float64            `json:"completion_rate"`
	CurrentTotalXP  int64              `json:"current_total_xp"`
	TopCategories   []CategoryActivity `json:"top_categories"`
	Message         string             `json:"message"`
}

func (s *InsightsService) WeeklySummary(ctx context.Context, userID uint) (*WeeklySummary, error) {
	db := s.DB.WithContext(ctx)
	since := s.now().AddDate(0, 0, -7)
	out := &WeeklySummary{Period: "Last 7 days", TopCategories: []CategoryActivity{}}

	if err := db.Model(&models.Journal{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&out.JournalsWritten).Error; err != nil {
		return nil, persist("weekly summary", err)
	}

	var tasks []models.Task
	if err := db.Where("user_id = ? AND created_at >= ?", userID, since).Find(&tasks).Error; err != nil {
		return nil, persist("weekly summary", err)
	}
	out.TasksCreated = len(tasks)
	for _, t := range tasks {
		if t.IsCompleted {
			out.TasksCompleted++
		}
	}
	if out.TasksCreated > 0 {
		out.CompletionRate = round2(float64(out.TasksCompleted) / float64(out.TasksCreated) * 100)
	}

	var stats models.UserStats
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&stats).Error; err != nil {
		return nil, persist("weekly summary", err)
	}
	out.CurrentTotalXP = stats.TotalXP

	var levels []models.CategoryLevel
	if err := db.Preload("Category").
		Where("user_id = ? AND xp > 0", userID).
		Order("xp DESC").Limit(3).
		Find(&levels).Error; err != nil {
		return nil, persist("weekly summary", err)
	}
	for _, l := range levels {
		if l.Category != nil {
			out.TopCategories = append(out.TopCategories, CategoryActivity{Name: l.Category.Name, XP: l.XP})
		}
	}

	switch {
	case out.JournalsWritten >= 5 && out.CompletionRate >= 70:
		out.Message = "🌟 Outstanding week! You're crushing your goals!"
	case out.JournalsWritten >= 3 || out.CompletionRate >= 50:
		out.Message = "💪 Great progress this week! Keep it up!"
	case out.JournalsWritten > 0 || out.TasksCompleted > 0:
		out.Message = "Good start! Let's build on this momentum."
	default:
		out.Message = "Start fresh this week! Every journey begins with a single step."
	}
	return out, nil
}

type RecentActivity struct {
	Journals       []models.Journal `json:"journals"`
	CompletedTasks []models.Task    `json:"completed_tasks"`
	PeriodDays     int              `json:"period_days"`
}

func (s *InsightsService) RecentActivity(ctx context.Context, userID uint, days, limit int) (*RecentActivity, error) {
	if days < 1 {
		days = 7
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	since := s.now().AddDate(0, 0, -days)
	db := s.DB.WithContext(ctx)
	out := &RecentActivity{PeriodDays: days, Journals: []models.Journal{}, CompletedTasks: []models.Task{}}

	if err := db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").Limit(limit).
		Find(&out.Journals).Error; err != nil {
		return nil, persist("recent activity", err)
	}
	if err := db.Where("user_id = ? AND is_completed = ? AND completed_at >= ?", userID, true, since).
		Order("completed_at DESC").Limit(limit).
		Find(&out.CompletedTasks).Error; err != nil {
		return nil, persist("recent activity", err)
	}
	return out, nil
}

type InsightsSummary struct {
	TotalJournalEntries int64   `json:"total_journal_entries"`
	TotalTasks          int64   `json:"total_tasks"`
	CompletedTasks      int64   `json:"completed_tasks"`
	CompletionRate      float64 `json:"completion_rate"`
	JournalStreak       int     `json:"journal_streak"`
	TaskStreak          int     `json:"task_completion_streak"`
	Message             string  `json:"message"`
}

func (s *InsightsService) Summary(ctx context.Context, userID uint) (*InsightsSummary, error) {
	stats, err := s.ActivityStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	streaks, err := s.Streaks(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &InsightsSummary{
		TotalJournalEntries: stats.TotalJournals,
		TotalTasks:          stats.TotalTasks,
		CompletedTasks:      stats.CompletedTasks,
		CompletionRate:      stats.CompletionRate,
		JournalStreak:       streaks.JournalStreak,
		TaskStreak:          streaks.TaskCompletionStreak,
	}
	switch {
	case stats.TotalJournals >= 10 && stats.CompletionRate >= 70:
		out.Message = "You're doing amazing! Your consistency is paying off. 🌟"
	case stats.TotalJournals >= 5 || stats.CompletionRate >= 50:
		out.Message = "Great progress! Keep building those healthy habits. 💪"
	case stats.TotalJournals > 0 || stats.CompletedTasks > 0:
		out.Message = "Nice start! Small steps lead to big changes. 🌱"
	default:
		out.Message = "Welcome to Seikatsu! Start your journey today. ✨"
	}
	return out, nil
}

type Dashboard struct {
	ActivityStats             *ActivityStats `json:"activity_stats"`
	LevelProgress             LevelProgress  `json:"level_progress"`
	RecentJournalsCount       int            `json:"recent_journals_count"`
	RecentCompletedTasksCount int            `json:"recent_completed_tasks_count"`
	PendingTasksCount         int64          `json:"pending_tasks_count"`
	GeneratedAt               time.Time      `json:"generated_at"`
}

func (s *InsightsService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	stats, err := s.ActivityStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.RecentActivity(ctx, userID, 7, 100)
	if err != nil {
		return nil, err
	}
	var pending int64
	if err := s.DB.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Count(&pending).Error; err != nil {
		return nil, persist("dashboard", err)
	}
	return &Dashboard{
		ActivityStats:             stats,
		LevelProgress:             CalculateLevelProgress(stats.TotalXP),
		RecentJournalsCount:       len(recent.Journals),
		RecentCompletedTasksCount: len(recent.CompletedTasks),
		PendingTasksCount:         pending,
		GeneratedAt:               s.now(),
	}, nil
}

type Productivity struct {
	PeriodDays          int     `json:"period_days"`
	TotalTasksCompleted int     `json:"total_tasks_completed"`
	TasksPerDayAvg      float64 `json:"tasks_per_day_avg"`
	TotalXPEarned       int64   `json:"total_xp_earned"`
	XPPerDayAvg         float64 `json:"xp_per_day_avg"`
	MostProductiveDay   string  `json:"most_productive_day,omitempty"`
}

// Productivity averages task completions over days (clamped to 7..365)
func (s *InsightsService) Productivity(ctx context.Context, userID uint, days int) (*Productivity, error) {
	days = int(math.Max(7, math.Min(365, float64(days))))
	var tasks []models.Task
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_completed = ? AND completed_at >= ?", userID, true, s.now().AddDate(0, 0, -days)).
		Find(&tasks).Error; err != nil {
		return nil, persist("productivity", err)
	}

	out := &Productivity{PeriodDays: days, TotalTasksCompleted: len(tasks)}
	perWeekday := map[time.Weekday]int{}
	for _, t := range tasks {
		out.TotalXPEarned += t.XPReward
		if t.CompletedAt != nil {
			perWeekday[t.CompletedAt.Weekday()]++
		}
	}
	out.TasksPerDayAvg = round2(float64(len(tasks)) / float64(days))
	out.XPPerDayAvg = round2(float64(out.TotalXPEarned) / float64(days))

	if len(perWeekday) > 0 {
		weekdays := make([]time.Weekday, 0, len(perWeekday))
		for d := range perWeekday {
			weekdays = append(weekdays, d)
		}
		sort.Slice(weekdays, func(i, j int) bool {
			if perWeekday[weekdays[i]] != perWeekday[weekdays[j]] {
				return perWeekday[weekdays[i]] > perWeekday[weekdays[j]]
			}
			return weekdays[i] < weekdays[j]
		})
		out.MostProductiveDay = weekdays[0].String()
	}
	return out, nil
}
