package services

import (
	"context"
	"testing"
	"time"

	"seikatsu-backend/models"
	"seikatsu-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestInsights(t *testing.T) (*InsightsService, *XPLedger, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	svc := NewInsightsService(db, NewStreakCalculator(GormActivityDates{DB: db}))
	return svc, NewXPLedger(db, testutil.Logger()), db, testutil.CreateUser(t, db, "noa")
}

func TestInsights_ActivityStatsAndSummary(t *testing.T) {
	svc, ledger, db, u := newTestInsights(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.Journal{UserID: u.ID, Title: "today", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "a", IsCompleted: true, CompletedAt: &now}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "b"}).Error)
	_, err := ledger.AddXP(ctx, u.ID, 1, 120, "seed")
	require.NoError(t, err)

	st, err := svc.ActivityStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalJournals)
	assert.Equal(t, int64(2), st.TotalTasks)
	assert.Equal(t, 50.0, st.CompletionRate)
	assert.Equal(t, 2, st.CurrentLevel)
	assert.Equal(t, int64(120), st.TotalXP)

	sum, err := svc.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.JournalStreak)
	assert.Equal(t, 1, sum.TaskStreak)
	assert.Equal(t, "Great progress! Keep building those healthy habits. 💪", sum.Message)
}

func TestInsights_ActivityStatsWithoutStats(t *testing.T) {
	svc, _, _, u := newTestInsights(t)

	st, err := svc.ActivityStats(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentLevel)
	assert.Zero(t, st.CompletionRate)
}

func TestInsights_RadarNormalizesAgainstTen(t *testing.T) {
	svc, ledger, _, u := newTestInsights(t)
	ctx := context.Background()

	_, err := ledger.AddXP(ctx, u.ID, 2, 250, "lift") // level 3
	require.NoError(t, err)
	_, err = ledger.AddXP(ctx, u.ID, 3, 10, "read") // level 1
	require.NoError(t, err)

	radar, err := svc.Radar(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Strength", "Learning"}, radar.Categories)
	assert.Equal(t, []int{3, 1}, radar.Levels)
	assert.Equal(t, []float64{30, 10}, radar.NormalizedScores)
}

func TestInsights_MoodTrend(t *testing.T) {
	svc, _, db, u := newTestInsights(t)
	ctx := context.Background()
	now := time.Now().UTC()

	moods := []string{"sad", "tired", "happy", "great"}
	for i, m := range moods {
		m := m
		require.NoError(t, db.Create(&models.Journal{
			UserID: u.ID, Title: "mood", Mood: &m, CreatedAt: now.AddDate(0, 0, -(len(moods) - i)),
		}).Error)
	}

	trend, err := svc.MoodTrend(ctx, u.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 4, trend.TotalEntries)
	assert.Equal(t, "Improving - Your mood seems to be getting better! 📈", trend.Trend)
	assert.Equal(t, MoodShare{Count: 1, Percentage: 25}, trend.MoodDistribution["happy"])
	require.Len(t, trend.RecentMoods, 4)
	assert.Equal(t, "great", trend.RecentMoods[0].Mood)

	empty, err := svc.MoodTrend(ctx, 9999, 30)
	require.NoError(t, err)
	assert.Equal(t, "Not enough data", empty.Trend)
	assert.Nil(t, empty.MostCommonMood)
}

func TestMoodTrendHelper(t *testing.T) {
	assert.Equal(t, "Declining - Consider self-care activities 💙", moodTrend([]string{"happy"}, []string{"sad"}))
	assert.Equal(t, "Stable - Maintaining consistent emotional patterns", moodTrend([]string{"happy"}, []string{"great"}))
	assert.Equal(t, "Not enough data to determine trend", moodTrend(nil, []string{"great"}))
}

func TestInsights_WeeklySummary(t *testing.T) {
	svc, ledger, db, u := newTestInsights(t)
	ctx := context.Background()

	week, err := svc.WeeklySummary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Start fresh this week! Every journey begins with a single step.", week.Message)
	assert.Empty(t, week.TopCategories)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Journal{UserID: u.ID, Title: "w"}).Error)
	}
	_, err = ledger.AddXP(ctx, u.ID, 4, 80, "friends")
	require.NoError(t, err)

	week, err = svc.WeeklySummary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), week.JournalsWritten)
	assert.Equal(t, int64(80), week.CurrentTotalXP)
	require.Len(t, week.TopCategories, 1)
	assert.Equal(t, "Relationship", week.TopCategories[0].Name)
	assert.Equal(t, "💪 Great progress this week! Keep it up!", week.Message)
}

func TestInsights_DashboardAndProductivity(t *testing.T) {
	svc, _, db, u := newTestInsights(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "done", XPReward: 14, IsCompleted: true, CompletedAt: &now}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "open"}).Error)

	dash, err := svc.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.PendingTasksCount)
	assert.Equal(t, 1, dash.RecentCompletedTasksCount)
	assert.Equal(t, 1, dash.LevelProgress.CurrentLevel)

	prod, err := svc.Productivity(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, prod.PeriodDays)
	assert.Equal(t, 1, prod.TotalTasksCompleted)
	assert.Equal(t, int64(14), prod.TotalXPEarned)
	assert.Equal(t, 2.0, prod.XPPerDayAvg)
	assert.Equal(t, now.Weekday().String(), prod.MostProductiveDay)
}
