package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"seikatsu-backend/models"
	"seikatsu-backend/testutil"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu         sync.Mutex
	levelUps   []int
	milestones []int
	err        error
	panicky    bool
}

func (r *recordingNotifier) NotifyLevelUp(_ context.Context, _ uint, level int) error {
	if r.panicky {
		panic("notifier exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelUps = append(r.levelUps, level)
	return r.err
}

func (r *recordingNotifier) NotifyStreakMilestone(_ context.Context, _ uint, days int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones = append(r.milestones, days)
	return r.err
}

type activityFixture struct {
	db       *gorm.DB
	orch     *ActivityOrchestrator
	notifier *recordingNotifier
	user     *models.User
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	log := testutil.Logger()
	ledger := NewXPLedger(db, log)
	streaks := NewStreakCalculator(GormActivityDates{DB: db})
	n := &recordingNotifier{}
	orch := NewActivityOrchestrator(ledger, streaks, n, DefaultXPRewards, log)
	return &activityFixture{db: db, orch: orch, notifier: n, user: testutil.CreateUser(t, db, "haru")}
}

func (f *activityFixture) task(t *testing.T, reward int64) *models.Task {
	t.Helper()
	task := &models.Task{UserID: f.user.ID, Title: "stretch", XPReward: reward}
	require.NoError(t, f.db.Create(task).Error)
	return task
}

func (f *activityFixture) totalXP(t *testing.T) int64 {
	t.Helper()
	var stats models.UserStats
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&stats).Error)
	return stats.TotalXP
}

func TestCompleteTask_NewUserLevelsUp(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 150)

	res, err := f.orch.CompleteTask(context.Background(), f.user.ID, task.ID, 0)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, int64(150), res.XPEarned)
	require.NotNil(t, res.XPDetails)
	assert.Equal(t, int64(150), res.XPDetails.TotalXP)
	assert.Equal(t, 2, res.XPDetails.OverallLevel)
	assert.True(t, res.XPDetails.OverallLeveledUp)
	assert.Equal(t, 1, res.XPDetails.OldOverallLevel)
	assert.Equal(t, 2, res.XPDetails.NewOverallLevel)
	require.NotNil(t, res.NewLevel)
	assert.Equal(t, 2, *res.NewLevel)
	assert.Equal(t, []int{2}, f.notifier.levelUps)

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.True(t, stored.IsCompleted)
	require.NotNil(t, stored.CompletedAt)
	assert.NotNil(t, stored.XPAwardedAt)
}

func TestCompleteTask_TwiceAwardsOnce(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 0) // default reward
	ctx := context.Background()

	first, err := f.orch.CompleteTask(ctx, f.user.ID, task.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTaskXPReward, first.XPEarned)

	second, err := f.orch.CompleteTask(ctx, f.user.ID, task.ID, 0)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyCompleted)
	assert.Zero(t, second.XPEarned)

	assert.Equal(t, models.DefaultTaskXPReward, f.totalXP(t))
}

func TestCompleteTask_UndoKeepsXPAndRecompletePaysNothing(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 40)
	ctx := context.Background()

	_, err := f.orch.CompleteTask(ctx, f.user.ID, task.ID, 0)
	require.NoError(t, err)

	undo, err := f.orch.UncompleteTask(ctx, f.user.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, undo.Success)

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.False(t, stored.IsCompleted)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, int64(40), f.totalXP(t), "undo never deducts")

	again, err := f.orch.CompleteTask(ctx, f.user.ID, task.ID, 0)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Zero(t, again.XPEarned)
	assert.Equal(t, int64(40), f.totalXP(t))
}

func TestUncompleteTask_NotCompleted(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 10)

	res, err := f.orch.UncompleteTask(context.Background(), f.user.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestCompleteTask_CategoryAndOwnership(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 30)
	ctx := context.Background()

	stranger := testutil.CreateUser(t, f.db, "stranger")
	_, err := f.orch.CompleteTask(ctx, stranger.ID, task.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orch.CompleteTask(ctx, f.user.ID, task.ID, 5)
	require.NoError(t, err)

	var cl models.CategoryLevel
	require.NoError(t, f.db.Where("user_id = ? AND category_id = ?", f.user.ID, 5).First(&cl).Error)
	assert.Equal(t, int64(30), cl.XP)
}

func TestCompleteTask_UnknownCategoryRollsBackFlag(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 30)

	_, err := f.orch.CompleteTask(context.Background(), f.user.ID, task.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.False(t, stored.IsCompleted, "flag and award persist together or not at all")
	assert.Nil(t, stored.CompletedAt)
}

func TestCompleteTask_NotifierFailureDoesNotFailAward(t *testing.T) {
	f := newActivityFixture(t)
	f.notifier.err = errors.New("broker down")
	task := f.task(t, 200)

	res, err := f.orch.CompleteTask(context.Background(), f.user.ID, task.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(200), f.totalXP(t))
}

func TestCompleteTask_NotifierPanicIsContained(t *testing.T) {
	f := newActivityFixture(t)
	f.notifier.panicky = true
	task := f.task(t, 200)

	res, err := f.orch.CompleteTask(context.Background(), f.user.ID, task.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestBulkCompleteTasks(t *testing.T) {
	f := newActivityFixture(t)
	a := f.task(t, 10)
	b := f.task(t, 25)
	ctx := context.Background()

	_, err := f.orch.CompleteTask(ctx, f.user.ID, b.ID, 0)
	require.NoError(t, err)

	res, err := f.orch.BulkCompleteTasks(ctx, f.user.ID, []string{a.ID, b.ID, "missing"}, 0)
	require.NoError(t, err)

	require.Len(t, res.Completed, 1)
	assert.Equal(t, a.ID, res.Completed[0].TaskID)
	assert.Equal(t, []string{b.ID}, res.AlreadyCompleted)
	assert.Equal(t, []string{"missing"}, res.NotFound)
	assert.Equal(t, int64(10), res.TotalXPEarned)
	assert.Equal(t, "Completed 1 tasks, earned 10 XP", res.Message)
}

func TestBulkCompleteTasks_UnknownCategoryRejectsBatch(t *testing.T) {
	f := newActivityFixture(t)
	task := f.task(t, 10)

	res, err := f.orch.BulkCompleteTasks(context.Background(), f.user.ID, []string{task.ID}, 999)
	require.Error(t, err)
	assert.Nil(t, res)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "category", nf.Entity)

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.False(t, stored.IsCompleted)
}

func TestCreateJournal_StreakReadFailureKeepsCommittedEntry(t *testing.T) {
	f := newActivityFixture(t)
	f.orch.Streaks = NewStreakCalculator(&fakeDates{err: errors.New("read replica down")})

	res, err := f.orch.CreateJournal(context.Background(), f.user.ID, JournalInput{Title: "evening"})
	require.NoError(t, err)
	require.NotNil(t, res.Journal)
	assert.Equal(t, int64(20), res.XPEarned)
	assert.Zero(t, res.CurrentStreak)
	assert.Nil(t, res.StreakMilestoneReached)
	assert.Empty(t, f.notifier.milestones)

	var journals int64
	require.NoError(t, f.db.Model(&models.Journal{}).Where("user_id = ?", f.user.ID).Count(&journals).Error)
	assert.Equal(t, int64(1), journals)
	assert.Equal(t, int64(20), f.totalXP(t))
}

func TestCreateJournal_AwardsXPAndStreak(t *testing.T) {
	f := newActivityFixture(t)

	mood := " Happy "
	res, err := f.orch.CreateJournal(context.Background(), f.user.ID, JournalInput{Title: "Day one", Content: "hello", Mood: &mood})
	require.NoError(t, err)

	assert.Equal(t, int64(20), res.XPEarned)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Nil(t, res.NewLevel)
	assert.Nil(t, res.StreakMilestoneReached)
	require.NotNil(t, res.Journal)
	assert.True(t, res.Journal.XPAwarded)
	require.NotNil(t, res.Journal.Mood)
	assert.Equal(t, "happy", *res.Journal.Mood)

	var cl models.CategoryLevel
	require.NoError(t, f.db.Where("user_id = ? AND category_id = ?", f.user.ID, DefaultXPRewards.DefaultCategoryID).First(&cl).Error)
	assert.Equal(t, int64(20), cl.XP)
}

func TestCreateJournal_Validation(t *testing.T) {
	f := newActivityFixture(t)

	_, err := f.orch.CreateJournal(context.Background(), f.user.ID, JournalInput{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordJournalEntry_Idempotent(t *testing.T) {
	f := newActivityFixture(t)
	j := &models.Journal{UserID: f.user.ID, Title: "imported"}
	require.NoError(t, f.db.Create(j).Error)
	ctx := context.Background()

	first, err := f.orch.RecordJournalEntry(ctx, f.user.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), first.XPEarned)

	second, err := f.orch.RecordJournalEntry(ctx, f.user.ID, j.ID)
	require.NoError(t, err)
	assert.Zero(t, second.XPEarned)
	assert.Equal(t, int64(20), f.totalXP(t))

	_, err = f.orch.RecordJournalEntry(ctx, f.user.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordJournalEntry_MilestoneAndLevelUp(t *testing.T) {
	f := newActivityFixture(t)
	now := time.Now().UTC()

	// six earlier days already written, none paid yet
	for i := 1; i <= 6; i++ {
		require.NoError(t, f.db.Create(&models.Journal{
			UserID: f.user.ID, Title: "past", XPAwarded: true, CreatedAt: now.AddDate(0, 0, -i),
		}).Error)
	}
	// push the user to 90 XP so today's 20 crosses level 2
	_, err := f.orch.Ledger.AddXP(context.Background(), f.user.ID, 1, 90, "backfill")
	require.NoError(t, err)

	res, err := f.orch.CreateJournal(context.Background(), f.user.ID, JournalInput{Title: "today"})
	require.NoError(t, err)

	assert.Equal(t, 7, res.CurrentStreak)
	require.NotNil(t, res.StreakMilestoneReached)
	assert.Equal(t, 7, *res.StreakMilestoneReached)
	require.NotNil(t, res.NewLevel)
	assert.Equal(t, 2, *res.NewLevel)
	assert.Equal(t, []int{7}, f.notifier.milestones)
	assert.Equal(t, []int{2}, f.notifier.levelUps)
}

func TestNewActivityOrchestrator_DefaultNotifierLogsUnderNotifications(t *testing.T) {
	db := testutil.OpenTestDB(t)
	log, hook := logtest.NewNullLogger()
	ledger := NewXPLedger(db, log)
	orch := NewActivityOrchestrator(ledger, NewStreakCalculator(GormActivityDates{DB: db}), nil, DefaultXPRewards, log)
	user := testutil.CreateUser(t, db, "mio")
	task := &models.Task{UserID: user.ID, Title: "long run", XPReward: 150}
	require.NoError(t, db.Create(task).Error)

	res, err := orch.CompleteTask(context.Background(), user.ID, task.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, res.NewLevel)

	var levelUp *logrus.Entry
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "🎉 Level Up!") {
			levelUp = e
		}
	}
	require.NotNil(t, levelUp)
	assert.Equal(t, "notifications", levelUp.Data["component"])
}
