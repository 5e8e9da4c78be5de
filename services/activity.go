package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seikatsu-backend/metrics"
	"seikatsu-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPRewards define what each activity pays (loaded from config in main)
type XPRewards struct {
	JournalEntryXP    int64
	DefaultTaskXP     int64
	DefaultCategoryID uint // the "General" bucket
}

var DefaultXPRewards = XPRewards{
	JournalEntryXP:    20,
	DefaultTaskXP:     models.DefaultTaskXPReward,
	DefaultCategoryID: 1,
}

// ActivityOrchestrator turns journal entries and task completions into XP, streaks and notifications
type ActivityOrchestrator struct {
	Ledger  *XPLedger
	Streaks *StreakCalculator
	Rewards XPRewards
	Log     logrus.FieldLogger

	notify safeNotifier
	now    func() time.Time
}

func NewActivityOrchestrator(ledger *XPLedger, streaks *StreakCalculator, notifier Notifier, rewards XPRewards, log logrus.FieldLogger) *ActivityOrchestrator {
	if notifier == nil {
		notifier = LogNotifier{Log: log.WithField("component", "notifications")}
	}
	log = log.WithField("component", "activity")
	return &ActivityOrchestrator{
		Ledger:  ledger,
		Streaks: streaks,
		Rewards: rewards,
		Log:     log,
		notify:  safeNotifier{inner: notifier, log: log},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type JournalInput struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Mood    *string `json:"mood,omitempty"`
}

func (in *JournalInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title", "is required")
	}
	if len(in.Title) > 200 {
		return invalid("title", "must be at most 200 characters")
	}
	if in.Mood != nil {
		m := strings.ToLower(strings.TrimSpace(*in.Mood))
		if m == "" {
			in.Mood = nil
		} else {
			in.Mood = &m
		}
	}
	return nil
}

type JournalResult struct {
	Journal                *models.Journal `json:"journal,omitempty"`
	XPEarned               int64           `json:"xp_earned"`
	NewLevel               *int            `json:"new_level,omitempty"`
	StreakMilestoneReached *int            `json:"streak_milestone_reached,omitempty"`
	CurrentStreak          int             `json:"current_streak"`
	XPDetails              *LedgerResult   `json:"xp_details,omitempty"`
}

// CreateJournal stores a new entry and awards its XP in the same transaction
func (o *ActivityOrchestrator) CreateJournal(ctx context.Context, userID uint, in JournalInput) (*JournalResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	j := &models.Journal{UserID: userID, Title: in.Title, Content: in.Content, Mood: in.Mood}
	var lr *LedgerResult
	err := o.Ledger.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		if err := tx.Create(j).Error; err != nil {
			return err
		}
		var err error
		lr, err = o.awardJournal(tx, userID, j)
		return err
	})
	if err != nil {
		return nil, persist("create journal", err)
	}
	return o.afterJournal(ctx, userID, j, lr)
}

// RecordJournalEntry awards XP for an existing entry. Recording the same entry again earns nothing.
func (o *ActivityOrchestrator) RecordJournalEntry(ctx context.Context, userID uint, journalID string) (*JournalResult, error) {
	var j models.Journal
	var lr *LedgerResult
	err := o.Ledger.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", journalID, userID).
			First(&j).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("journal", journalID)
		}
		if err != nil {
			return err
		}
		lr, err = o.awardJournal(tx, userID, &j)
		return err
	})
	if err != nil {
		return nil, persist("record journal entry", err)
	}
	return o.afterJournal(ctx, userID, &j, lr)
}

// awardJournal pays the entry once. Returns nil when it was already paid.
func (o *ActivityOrchestrator) awardJournal(tx *gorm.DB, userID uint, j *models.Journal) (*LedgerResult, error) {
	if j.XPAwarded {
		return nil, nil
	}
	lr, err := o.Ledger.AddXPTx(tx, userID, o.Rewards.DefaultCategoryID, o.Rewards.JournalEntryXP, "journal_entry:"+j.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(j).Update("xp_awarded", true).Error; err != nil {
		return nil, err
	}
	j.XPAwarded = true
	return lr, nil
}

// afterJournal runs once the award is committed: level-up signal, streak, milestone signal
func (o *ActivityOrchestrator) afterJournal(ctx context.Context, userID uint, j *models.Journal, lr *LedgerResult) (*JournalResult, error) {
	res := &JournalResult{Journal: j, XPDetails: lr}
	nctx := context.WithoutCancel(ctx)

	if lr != nil {
		o.Ledger.Observe(lr)
		res.XPEarned = lr.XPAdded
		if lr.OverallLeveledUp {
			lvl := lr.NewOverallLevel
			res.NewLevel = &lvl
			o.notify.levelUp(nctx, userID, lvl)
		}
	}

	// the entry is already committed; a failed streak read must not turn it into an error
	streak, err := o.Streaks.CurrentStreak(ctx, userID, ActivityJournal, o.now())
	if err != nil {
		metrics.RecordPostCommitFailure("journal_streak")
		o.Log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "journal_id": j.ID}).
			Warn("⚠️  streak lookup failed after journal commit")
		streak = 0
	}
	res.CurrentStreak = streak
	if err == nil && lr != nil && StreakMilestones[streak] {
		days := streak
		res.StreakMilestoneReached = &days
		o.notify.streakMilestone(nctx, userID, days)
	}

	o.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"journal_id": j.ID,
		"xp_earned":  res.XPEarned,
		"streak":     streak,
	}).Info("📝 journal entry recorded")
	return res, nil
}

type TaskResult struct {
	Success          bool          `json:"success"`
	AlreadyCompleted bool          `json:"already_completed,omitempty"`
	Message          string        `json:"message"`
	Task             *models.Task  `json:"task,omitempty"`
	XPEarned         int64         `json:"xp_earned"`
	NewLevel         *int          `json:"new_level,omitempty"`
	XPDetails        *LedgerResult `json:"xp_details,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// CompleteTask marks the task done and pays its xp_reward in one transaction.
// Completing an already-completed task is a no-op. XP is paid only the first
// time a task is ever completed, so complete/undo cycles cannot farm XP.
func (o *ActivityOrchestrator) CompleteTask(ctx context.Context, userID uint, taskID string, categoryID uint) (*TaskResult, error) {
	if categoryID == 0 {
		categoryID = o.Rewards.DefaultCategoryID
	}

	res := &TaskResult{}
	err := o.Ledger.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		t, err := lockTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		res.Task = t
		if t.IsCompleted {
			res.AlreadyCompleted = true
			res.Message = "Task already completed"
			res.CompletedAt = t.CompletedAt
			return nil
		}

		now := o.now()
		t.IsCompleted = true
		t.CompletedAt = &now

		if t.XPAwardedAt == nil {
			reward := t.XPReward
			if reward <= 0 {
				reward = o.Rewards.DefaultTaskXP
			}
			lr, err := o.Ledger.AddXPTx(tx, userID, categoryID, reward, "task_completed:"+t.ID)
			if err != nil {
				return err
			}
			t.XPAwardedAt = &now
			res.XPDetails = lr
			res.XPEarned = lr.XPAdded
		}

		if err := tx.Save(t).Error; err != nil {
			return err
		}
		res.Success = true
		res.CompletedAt = t.CompletedAt
		res.Message = fmt.Sprintf("Task completed! +%d XP", res.XPEarned)
		return nil
	})
	if err != nil {
		return nil, persist("complete task", err)
	}

	if lr := res.XPDetails; lr != nil {
		o.Ledger.Observe(lr)
		if lr.OverallLeveledUp {
			lvl := lr.NewOverallLevel
			res.NewLevel = &lvl
			o.notify.levelUp(context.WithoutCancel(ctx), userID, lvl)
		}
	}

	if res.Success {
		o.Log.WithFields(logrus.Fields{
			"user_id":   userID,
			"task_id":   taskID,
			"xp_earned": res.XPEarned,
		}).Info("✅ task completed")
	}
	return res, nil
}

// UncompleteTask clears the completion flag and timestamp. Granted XP is kept.
func (o *ActivityOrchestrator) UncompleteTask(ctx context.Context, userID uint, taskID string) (*TaskResult, error) {
	res := &TaskResult{}
	err := o.Ledger.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		t, err := lockTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		res.Task = t
		if !t.IsCompleted {
			res.Message = "Task is not completed"
			return nil
		}
		t.IsCompleted = false
		t.CompletedAt = nil
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		res.Success = true
		res.Message = "Task marked as incomplete"
		return nil
	})
	if err != nil {
		return nil, persist("uncomplete task", err)
	}
	return res, nil
}

type BulkCompletedItem struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
	XPEarned int64  `json:"xp_earned"`
}

type BulkCompleteResult struct {
	Completed        []BulkCompletedItem `json:"completed"`
	AlreadyCompleted []string            `json:"already_completed"`
	NotFound         []string            `json:"not_found"`
	TotalXPEarned    int64               `json:"total_xp_earned"`
	Message          string              `json:"message"`
}

// BulkCompleteTasks completes each task in its own transaction.
// Unknown task ids are collected; an unknown category rejects the whole batch
// and a store failure stops it (earlier completions stay committed).
func (o *ActivityOrchestrator) BulkCompleteTasks(ctx context.Context, userID uint, taskIDs []string, categoryID uint) (*BulkCompleteResult, error) {
	if categoryID == 0 {
		categoryID = o.Rewards.DefaultCategoryID
	}
	if err := ensureCategory(o.Ledger.DB.WithContext(ctx), categoryID); err != nil {
		return nil, persist("bulk complete tasks", err)
	}

	out := &BulkCompleteResult{
		Completed:        []BulkCompletedItem{},
		AlreadyCompleted: []string{},
		NotFound:         []string{},
	}
	for _, id := range taskIDs {
		res, err := o.CompleteTask(ctx, userID, id, categoryID)
		if isTaskNotFound(err) {
			out.NotFound = append(out.NotFound, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if res.AlreadyCompleted {
			out.AlreadyCompleted = append(out.AlreadyCompleted, id)
			continue
		}
		out.Completed = append(out.Completed, BulkCompletedItem{TaskID: id, Title: res.Task.Title, XPEarned: res.XPEarned})
		out.TotalXPEarned += res.XPEarned
	}
	out.Message = fmt.Sprintf("Completed %d tasks, earned %d XP", len(out.Completed), out.TotalXPEarned)
	return out, nil
}

func isTaskNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Entity == "task"
}

func lockTask(tx *gorm.DB, userID uint, taskID string) (*models.Task, error) {
	var t models.Task
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("task", taskID)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
