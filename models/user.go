package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Credentials live here; progression lives in UserStats.
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPassword string `gorm:"not null" json:"-"`

	Stats *UserStats `gorm:"foreignKey:UserID" json:"stats,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
