package models

import "time"

// UserStats is the aggregate XP state of a user (one row per user).
// Level is derived from TotalXP and only written by the XP ledger.
type UserStats struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	UserID  uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalXP int64 `gorm:"not null;default:0" json:"total_xp"`
	Level   int   `gorm:"not null;default:1" json:"level"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// CategoryLevel is the XP state of a (user, category) pair, created lazily on first award
type CategoryLevel struct {
	ID         uint  `gorm:"primaryKey" json:"id"`
	UserID     uint  `gorm:"uniqueIndex:idx_user_category;not null" json:"user_id"`
	CategoryID uint  `gorm:"uniqueIndex:idx_user_category;not null" json:"category_id"`
	XP         int64 `gorm:"not null;default:0" json:"xp"`
	Level      int   `gorm:"not null;default:1" json:"level"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
