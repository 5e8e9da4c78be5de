package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTaskXPReward applies when a task is created without a positive reward
const DefaultTaskXPReward int64 = 10

// Task is a to-do item. IsCompleted and CompletedAt always change together.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	XPReward    int64      `gorm:"not null;default:10" json:"xp_reward"`

	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`

	// XPAwardedAt is set the first time completion XP is granted and never cleared
	XPAwardedAt *time.Time `json:"xp_awarded_at,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.XPReward <= 0 {
		t.XPReward = DefaultTaskXPReward
	}
	return nil
}
