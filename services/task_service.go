package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"seikatsu-backend/models"

	"gorm.io/gorm"
)

// TaskService is task CRUD and task queries. Completion goes through ActivityOrchestrator.
type TaskService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	XPReward    int64      `json:"xp_reward"`
}

func (s *TaskService) Create(ctx context.Context, userID uint, in TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if len(title) > 200 {
		return nil, invalid("title", "must be at most 200 characters")
	}
	if in.XPReward > 10000 {
		return nil, invalid("xp_reward", "must be at most 10000")
	}

	t := &models.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		DueDate:     utcPtr(in.DueDate),
		XPReward:    in.XPReward, // <= 0 falls back to the default in BeforeCreate
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, persist("create task", err)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, userID uint, id string) (*models.Task, error) {
	var t models.Task
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, persist("get task", err)
	}
	return &t, nil
}

// List filters by completion when completed is non-nil
func (s *TaskService) List(ctx context.Context, userID uint, completed *bool, page, size int) (*Page[models.Task], error) {
	page, size = normalizePage(page, size)
	db := s.DB.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", userID)
	if completed != nil {
		db = db.Where("is_completed = ?", *completed)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, persist("list tasks", err)
	}
	var items []models.Task
	if err := db.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return nil, persist("list tasks", err)
	}
	return &Page[models.Task]{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// TaskUpdate edits descriptive fields. xp_reward is fixed at creation and completion has its own operations.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	ClearDue    bool       `json:"clear_due_date"`
}

func (s *TaskService) Update(ctx context.Context, userID uint, id string, in TaskUpdate) (*models.Task, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ClearDue {
		updates["due_date"] = nil
	} else if in.DueDate != nil {
		updates["due_date"] = in.DueDate.UTC()
	}
	if len(updates) == 0 {
		return t, nil
	}

	if err := s.DB.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
		return nil, persist("update task", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *TaskService) Delete(ctx context.Context, userID uint, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Task{})
	if res.Error != nil {
		return persist("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("task", id)
	}
	return nil
}

// Due returns incomplete tasks due between now and daysAhead days from now
func (s *TaskService) Due(ctx context.Context, userID uint, daysAhead int) ([]models.Task, error) {
	if daysAhead < 1 {
		daysAhead = 7
	}
	now := s.now()
	var tasks []models.Task
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_completed = ? AND due_date >= ? AND due_date <= ?", userID, false, now, now.AddDate(0, 0, daysAhead)).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, persist("due tasks", err)
}

func (s *TaskService) Overdue(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_completed = ? AND due_date < ?", userID, false, s.now()).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, persist("overdue tasks", err)
}

type TodayTasks struct {
	Date           string        `json:"date"`
	DueToday       int           `json:"due_today"`
	CompletedToday int           `json:"completed_today"`
	Incomplete     []models.Task `json:"incomplete_tasks"`
	Completed      []models.Task `json:"completed_tasks"`
	CompletionRate float64       `json:"completion_rate"`
}

// Today groups the tasks due today (UTC) and counts today's completions
func (s *TaskService) Today(ctx context.Context, userID uint) (*TodayTasks, error) {
	start := utcDay(s.now())
	end := start.AddDate(0, 0, 1)
	db := s.DB.WithContext(ctx)

	var due []models.Task
	if err := db.Where("user_id = ? AND due_date >= ? AND due_date < ?", userID, start, end).
		Order("due_date ASC").Find(&due).Error; err != nil {
		return nil, persist("today tasks", err)
	}
	var completedToday int64
	if err := db.Model(&models.Task{}).
		Where("user_id = ? AND is_completed = ? AND completed_at >= ? AND completed_at < ?", userID, true, start, end).
		Count(&completedToday).Error; err != nil {
		return nil, persist("today tasks", err)
	}

	out := &TodayTasks{
		Date:           start.Format("2006-01-02"),
		DueToday:       len(due),
		CompletedToday: int(completedToday),
		Incomplete:     []models.Task{},
		Completed:      []models.Task{},
	}
	for _, t := range due {
		if t.IsCompleted {
			out.Completed = append(out.Completed, t)
		} else {
			out.Incomplete = append(out.Incomplete, t)
		}
	}
	if len(due) > 0 {
		out.CompletionRate = round2(float64(len(out.Completed)) / float64(len(due)) * 100)
	}
	return out, nil
}

type TaskStatistics struct {
	PeriodDays             int     `json:"period_days"`
	TotalTasks             int     `json:"total_tasks"`
	CompletedTasks         int     `json:"completed_tasks"`
	IncompleteTasks        int     `json:"incomplete_tasks"`
	OverdueTasks           int     `json:"overdue_tasks"`
	CompletionRate         float64 `json:"completion_rate"`
	AvgCompletionTimeHours float64 `json:"avg_completion_time_hours"`
	TotalXPAvailable       int64   `json:"total_xp_available"`
	XPEarned               int64   `json:"xp_earned"`
}

// Statistics summarizes tasks created in the last `days` days
func (s *TaskService) Statistics(ctx context.Context, userID uint, days int) (*TaskStatistics, error) {
	if days < 1 {
		days = 30
	}
	now := s.now()
	var tasks []models.Task
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, now.AddDate(0, 0, -days)).
		Find(&tasks).Error; err != nil {
		return nil, persist("task statistics", err)
	}

	st := &TaskStatistics{PeriodDays: days, TotalTasks: len(tasks)}
	var hours float64
	for _, t := range tasks {
		st.TotalXPAvailable += t.XPReward
		if t.XPAwardedAt != nil {
			st.XPEarned += t.XPReward
		}
		if t.IsCompleted {
			st.CompletedTasks++
			if t.CompletedAt != nil {
				hours += t.CompletedAt.Sub(t.CreatedAt).Hours()
			}
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			st.OverdueTasks++
		}
	}
	st.IncompleteTasks = st.TotalTasks - st.CompletedTasks
	if st.TotalTasks > 0 {
		st.CompletionRate = round2(float64(st.CompletedTasks) / float64(st.TotalTasks) * 100)
	}
	if st.CompletedTasks > 0 {
		st.AvgCompletionTimeHours = round2(hours / float64(st.CompletedTasks))
	}
	return st, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
