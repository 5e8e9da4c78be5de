package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Journal is a diary entry. CreatedAt is the activity timestamp used for streaks.
type Journal struct {
	ID      string  `gorm:"primaryKey;size:36" json:"id"`
	UserID  uint    `gorm:"index:idx_journal_user_created;not null" json:"user_id"`
	Title   string  `gorm:"size:200;not null" json:"title"`
	Content string  `gorm:"type:text" json:"content"`
	Mood    *string `gorm:"size:32" json:"mood,omitempty"`

	// XPAwarded flips once; recording the same entry twice never pays twice
	XPAwarded bool `gorm:"not null;default:false" json:"xp_awarded"`

	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_journal_user_created;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (j *Journal) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
