package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"seikatsu-backend/metrics"
	"seikatsu-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerResult is what every XP mutation reports back
type LedgerResult struct {
	Success    bool   `json:"success"`
	UserID     uint   `json:"user_id"`
	CategoryID uint   `json:"category_id"`
	Reason     string `json:"reason,omitempty"`

	XPAdded    int64 `json:"xp_added,omitempty"`
	XPDeducted int64 `json:"xp_deducted,omitempty"`

	CategoryLevel     int   `json:"category_level"`
	CategoryXP        int64 `json:"category_xp"`
	CategoryLeveledUp bool  `json:"category_leveled_up"`
	OldCategoryLevel  int   `json:"old_category_level,omitempty"`
	NewCategoryLevel  int   `json:"new_category_level,omitempty"`

	TotalXP          int64 `json:"total_xp"`
	OverallLevel     int   `json:"overall_level"`
	OverallLeveledUp bool  `json:"overall_leveled_up"`
	OldOverallLevel  int   `json:"old_overall_level,omitempty"`
	NewOverallLevel  int   `json:"new_overall_level,omitempty"`
}

// XPLedger owns UserStats and CategoryLevel. Callers never write those rows directly.
//
// Every mutation holds the user's in-process lock and runs in one transaction
// that reads the rows FOR UPDATE, so concurrent awards to the same user never
// lose an update. The lock is always taken before the transaction starts.
type XPLedger struct {
	DB  *gorm.DB
	Log logrus.FieldLogger

	locks userLocks
	now   func() time.Time
}

func NewXPLedger(db *gorm.DB, log logrus.FieldLogger) *XPLedger {
	return &XPLedger{
		DB:  db,
		Log: log.WithField("component", "xp_ledger"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RunLocked runs fn in a transaction while holding userID's lock.
// fn must only use tx; it may call AddXPTx / DeductXPTx.
func (l *XPLedger) RunLocked(ctx context.Context, userID uint, fn func(tx *gorm.DB) error) error {
	mu := l.locks.get(userID)
	mu.Lock()
	defer mu.Unlock()

	return l.DB.WithContext(ctx).Transaction(fn)
}

// AddXP adds amount (non-zero) to the category and to the user's aggregate
func (l *XPLedger) AddXP(ctx context.Context, userID, categoryID uint, amount int64, reason string) (*LedgerResult, error) {
	var res *LedgerResult
	err := l.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		var err error
		res, err = l.AddXPTx(tx, userID, categoryID, amount, reason)
		return err
	})
	if err != nil {
		return nil, persist("add xp", err)
	}
	l.Observe(res)
	return res, nil
}

// DeductXP removes up to amount (> 0) from the category; the aggregate loses what was actually removed
func (l *XPLedger) DeductXP(ctx context.Context, userID, categoryID uint, amount int64, reason string) (*LedgerResult, error) {
	var res *LedgerResult
	err := l.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		var err error
		res, err = l.DeductXPTx(tx, userID, categoryID, amount, reason)
		return err
	})
	if err != nil {
		return nil, persist("deduct xp", err)
	}
	l.Observe(res)
	return res, nil
}

// AddXPTx is AddXP inside a caller-owned transaction (see RunLocked).
// Negative amounts are corrective: each counter clamps at 0 and the
// aggregate moves by what the category actually moved.
func (l *XPLedger) AddXPTx(tx *gorm.DB, userID, categoryID uint, amount int64, reason string) (*LedgerResult, error) {
	if amount == 0 {
		return nil, invalid("amount", "must not be zero")
	}
	if err := ensureUser(tx, userID); err != nil {
		return nil, err
	}
	if err := ensureCategory(tx, categoryID); err != nil {
		return nil, err
	}
	if err := ensureRows(tx, userID, categoryID); err != nil {
		return nil, err
	}

	cat, stats, err := lockRows(tx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	oldCatXP, oldCatLevel := cat.XP, cat.Level
	oldTotalLevel := stats.Level

	cat.XP = clampZero(cat.XP + amount)
	applied := cat.XP - oldCatXP
	stats.TotalXP = clampZero(stats.TotalXP + applied)

	res, err := l.save(tx, cat, stats, oldCatLevel, oldTotalLevel)
	if err != nil {
		return nil, err
	}
	res.Reason = reason
	if applied >= 0 {
		res.XPAdded = applied
	} else {
		res.XPDeducted = -applied
	}

	l.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"category_id": categoryID,
		"amount":      amount,
		"applied":     applied,
		"total_xp":    stats.TotalXP,
		"level":       stats.Level,
		"reason":      reason,
	}).Info("🎮 XP awarded")
	return res, nil
}

// DeductXPTx is DeductXP inside a caller-owned transaction
func (l *XPLedger) DeductXPTx(tx *gorm.DB, userID, categoryID uint, amount int64, reason string) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, invalid("amount", "must be positive")
	}

	var cat models.CategoryLevel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("category level", categoryID)
	}
	if err != nil {
		return nil, err
	}

	var stats models.UserStats
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user stats", userID)
	}
	if err != nil {
		return nil, err
	}

	actual := amount
	if actual > cat.XP {
		actual = cat.XP
	}
	oldCatLevel, oldTotalLevel := cat.Level, stats.Level
	cat.XP -= actual
	stats.TotalXP = clampZero(stats.TotalXP - actual)

	res, err := l.save(tx, &cat, &stats, oldCatLevel, oldTotalLevel)
	if err != nil {
		return nil, err
	}
	res.Reason = reason
	res.XPDeducted = actual

	l.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"category_id": categoryID,
		"requested":   amount,
		"deducted":    actual,
		"total_xp":    stats.TotalXP,
		"reason":      reason,
	}).Info("XP deducted")
	return res, nil
}

// EnsureStats creates the user's aggregate row if it is missing (idempotent)
func (l *XPLedger) EnsureStats(tx *gorm.DB, userID uint) error {
	return ensureStats(tx, userID)
}

// save recomputes derived levels, persists both rows and fills the result.
// Level decreases are stored but never flagged.
func (l *XPLedger) save(tx *gorm.DB, cat *models.CategoryLevel, stats *models.UserStats, oldCatLevel, oldTotalLevel int) (*LedgerResult, error) {
	cat.Level = LevelFor(cat.XP)
	stats.Level = LevelFor(stats.TotalXP)

	res := &LedgerResult{
		Success:       true,
		UserID:        stats.UserID,
		CategoryID:    cat.CategoryID,
		CategoryLevel: cat.Level,
		CategoryXP:    cat.XP,
		TotalXP:       stats.TotalXP,
		OverallLevel:  stats.Level,
	}
	if cat.Level > oldCatLevel {
		res.CategoryLeveledUp = true
		res.OldCategoryLevel = oldCatLevel
		res.NewCategoryLevel = cat.Level
	}
	if stats.Level > oldTotalLevel {
		now := l.now()
		stats.LastLevelUpAt = &now
		res.OverallLeveledUp = true
		res.OldOverallLevel = oldTotalLevel
		res.NewOverallLevel = stats.Level
	}

	if err := tx.Save(cat).Error; err != nil {
		return nil, err
	}
	if err := tx.Save(stats).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// Observe pushes a committed result into metrics
func (l *XPLedger) Observe(res *LedgerResult) {
	if res == nil {
		return
	}
	metrics.RecordXP(res.XPAdded, res.XPDeducted)
	if res.CategoryLeveledUp {
		metrics.RecordLevelUp("category")
	}
	if res.OverallLeveledUp {
		metrics.RecordLevelUp("overall")
	}
}

func ensureUser(tx *gorm.DB, userID uint) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("user", userID)
	}
	return nil
}

func ensureCategory(tx *gorm.DB, categoryID uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", categoryID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("category", categoryID)
	}
	return nil
}

// ensureRows lazily creates both XP rows. ON CONFLICT DO NOTHING keeps concurrent first awards from colliding.
func ensureRows(tx *gorm.DB, userID, categoryID uint) error {
	if err := ensureStats(tx, userID); err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CategoryLevel{UserID: userID, CategoryID: categoryID, Level: 1}).Error
}

func ensureStats(tx *gorm.DB, userID uint) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserStats{UserID: userID, Level: 1}).Error
}

func lockRows(tx *gorm.DB, userID, categoryID uint) (*models.CategoryLevel, *models.UserStats, error) {
	var cat models.CategoryLevel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		First(&cat).Error; err != nil {
		return nil, nil, err
	}
	var stats models.UserStats
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error; err != nil {
		return nil, nil, err
	}
	return &cat, &stats, nil
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

const lockStripes = 64

// userLocks is a fixed set of mutexes striped by user id
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (u *userLocks) get(userID uint) *sync.Mutex {
	return &u.stripes[userID%lockStripes]
}
