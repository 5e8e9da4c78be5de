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

var taskNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestTaskService(t *testing.T) (*TaskService, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	svc := NewTaskService(db)
	svc.now = func() time.Time { return taskNow }
	return svc, db, testutil.CreateUser(t, db, "tomo")
}

func TestTaskService_CreateValidatesAndDefaults(t *testing.T) {
	svc, _, u := newTestTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, u.ID, TaskInput{Title: "  run  "})
	require.NoError(t, err)
	assert.Equal(t, "run", task.Title)
	assert.Equal(t, models.DefaultTaskXPReward, task.XPReward)
	assert.Len(t, task.ID, 36)

	_, err = svc.Create(ctx, u.ID, TaskInput{Title: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, u.ID, TaskInput{Title: "greedy", XPReward: 10001})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskService_ListFiltersByCompletion(t *testing.T) {
	svc, db, u := newTestTaskService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "open"}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "done", IsCompleted: true}).Error)

	all, err := svc.List(ctx, u.ID, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalItems)

	yes := true
	done, err := svc.List(ctx, u.ID, &yes, 1, 20)
	require.NoError(t, err)
	require.Len(t, done.Items, 1)
	assert.Equal(t, "done", done.Items[0].Title)
}

func TestTaskService_UpdateAndDelete(t *testing.T) {
	svc, _, u := newTestTaskService(t)
	ctx := context.Background()

	due := taskNow.Add(48 * time.Hour)
	task, err := svc.Create(ctx, u.ID, TaskInput{Title: "read", DueDate: &due})
	require.NoError(t, err)

	desc := "two chapters"
	updated, err := svc.Update(ctx, u.ID, task.ID, TaskUpdate{Description: &desc, ClearDue: true})
	require.NoError(t, err)
	assert.Equal(t, "two chapters", updated.Description)
	assert.Nil(t, updated.DueDate)

	require.NoError(t, svc.Delete(ctx, u.ID, task.ID))
	_, err = svc.Get(ctx, u.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_DueOverdueToday(t *testing.T) {
	svc, db, u := newTestTaskService(t)
	ctx := context.Background()

	soon := taskNow.Add(3 * time.Hour)
	later := taskNow.AddDate(0, 0, 20)
	past := taskNow.AddDate(0, 0, -1)
	doneAt := taskNow.Add(-time.Hour)
	dueToday := taskNow.Add(-2 * time.Hour)

	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "soon", DueDate: &soon}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "later", DueDate: &later}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "late", DueDate: &past}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "finished", DueDate: &dueToday, IsCompleted: true, CompletedAt: &doneAt}).Error)

	due, err := svc.Due(ctx, u.ID, 7)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].Title)

	overdue, err := svc.Overdue(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "late", overdue[0].Title)

	today, err := svc.Today(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-10", today.Date)
	assert.Equal(t, 2, today.DueToday)
	assert.Equal(t, 1, today.CompletedToday)
	assert.Len(t, today.Incomplete, 1)
	assert.Len(t, today.Completed, 1)
	assert.Equal(t, 50.0, today.CompletionRate)
}

func TestTaskService_Statistics(t *testing.T) {
	svc, db, u := newTestTaskService(t)
	ctx := context.Background()

	created := taskNow.Add(-10 * time.Hour)
	doneAt := taskNow.Add(-6 * time.Hour)
	past := taskNow.Add(-time.Hour)
	require.NoError(t, db.Create(&models.Task{
		UserID: u.ID, Title: "a", XPReward: 30, IsCompleted: true,
		CompletedAt: &doneAt, XPAwardedAt: &doneAt, CreatedAt: created,
	}).Error)
	require.NoError(t, db.Create(&models.Task{UserID: u.ID, Title: "b", XPReward: 20, DueDate: &past, CreatedAt: created}).Error)

	st, err := svc.Statistics(ctx, u.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalTasks)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, 1, st.IncompleteTasks)
	assert.Equal(t, 1, st.OverdueTasks)
	assert.Equal(t, 50.0, st.CompletionRate)
	assert.Equal(t, 4.0, st.AvgCompletionTimeHours)
	assert.Equal(t, int64(50), st.TotalXPAvailable)
	assert.Equal(t, int64(30), st.XPEarned)
}
