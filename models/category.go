package models

// Category is an XP bucket (Strength, Learning, ...). "General" is the default bucket.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:64;not null" json:"slug"`
}

// GeneralCategoryName is seeded first so it gets id 1
const GeneralCategoryName = "General"

// DefaultCategories seeded on startup, after General
var DefaultCategories = []string{
	"Strength",
	"Learning",
	"Relationship",
	"Spirituality",
	"Career",
	"Sleep",
	"Nutrition",
}
