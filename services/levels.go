package services

import (
	"context"

	"seikatsu-backend/models"

	"gorm.io/gorm"
)

// CategoryProgress is one row of the per-category breakdown
type CategoryProgress struct {
	CategoryID   uint          `json:"category_id"`
	CategoryName string        `json:"category_name"`
	XP           int64         `json:"xp"`
	Level        int           `json:"level"`
	Progress     LevelProgress `json:"progress"`
}

// LevelDetails is the overall + per-category view of a user's progression
type LevelDetails struct {
	UserID     uint               `json:"user_id"`
	Overall    LevelProgress      `json:"overall"`
	Categories []CategoryProgress `json:"categories"`
}

// LevelDetails reads a user's XP state. Missing rows read as level 1 / 0 XP; nothing is created.
func (l *XPLedger) LevelDetails(ctx context.Context, userID uint) (*LevelDetails, error) {
	db := l.DB.WithContext(ctx)

	var stats models.UserStats
	res := db.Where("user_id = ?", userID).Limit(1).Find(&stats)
	if res.Error != nil {
		return nil, persist("level details", res.Error)
	}

	var levels []models.CategoryLevel
	if err := db.Preload("Category").
		Where("user_id = ?", userID).
		Order("category_id ASC").
		Find(&levels).Error; err != nil {
		return nil, persist("level details", err)
	}

	details := &LevelDetails{
		UserID:     userID,
		Overall:    CalculateLevelProgress(stats.TotalXP),
		Categories: make([]CategoryProgress, 0, len(levels)),
	}
	for _, cl := range levels {
		name := ""
		if cl.Category != nil {
			name = cl.Category.Name
		}
		details.Categories = append(details.Categories, CategoryProgress{
			CategoryID:   cl.CategoryID,
			CategoryName: name,
			XP:           cl.XP,
			Level:        cl.Level,
			Progress:     CalculateLevelProgress(cl.XP),
		})
	}
	return details, nil
}

// RecalcReport counts rows whose stored level was repaired
type RecalcReport struct {
	UserStatsChecked  int `json:"user_stats_checked"`
	UserStatsFixed    int `json:"user_stats_fixed"`
	CategoriesChecked int `json:"categories_checked"`
	CategoriesFixed   int `json:"categories_fixed"`
}

const recalcBatchSize = 200

// RecalculateLevels rewrites every stored level from its XP. Each fix is
// guarded on the XP it was computed from, so a concurrent award is never overwritten.
func (l *XPLedger) RecalculateLevels(ctx context.Context) (*RecalcReport, error) {
	db := l.DB.WithContext(ctx)
	report := &RecalcReport{}

	var statsBatch []models.UserStats
	err := db.Model(&models.UserStats{}).FindInBatches(&statsBatch, recalcBatchSize, func(tx *gorm.DB, _ int) error {
		for _, s := range statsBatch {
			report.UserStatsChecked++
			want := LevelFor(s.TotalXP)
			if s.Level == want {
				continue
			}
			res := db.Model(&models.UserStats{}).
				Where("id = ? AND total_xp = ?", s.ID, s.TotalXP).
				Update("level", want)
			if res.Error != nil {
				return res.Error
			}
			report.UserStatsFixed += int(res.RowsAffected)
		}
		return nil
	}).Error
	if err != nil {
		return nil, persist("recalculate levels", err)
	}

	var catBatch []models.CategoryLevel
	err = db.Model(&models.CategoryLevel{}).FindInBatches(&catBatch, recalcBatchSize, func(tx *gorm.DB, _ int) error {
		for _, c := range catBatch {
			report.CategoriesChecked++
			want := LevelFor(c.XP)
			if c.Level == want {
				continue
			}
			res := db.Model(&models.CategoryLevel{}).
				Where("id = ? AND xp = ?", c.ID, c.XP).
				Update("level", want)
			if res.Error != nil {
				return res.Error
			}
			report.CategoriesFixed += int(res.RowsAffected)
		}
		return nil
	}).Error
	if err != nil {
		return nil, persist("recalculate levels", err)
	}

	l.Log.WithField("report", report).Info("🔁 level recalculation finished")
	return report, nil
}
