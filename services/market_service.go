package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seikatsu-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MarketService sells catalog items for XP. Spending goes through the ledger.
type MarketService struct {
	DB                *gorm.DB
	Ledger            *XPLedger
	Log               logrus.FieldLogger
	DefaultCategoryID uint
}

func NewMarketService(db *gorm.DB, ledger *XPLedger, defaultCategoryID uint, log logrus.FieldLogger) *MarketService {
	return &MarketService{DB: db, Ledger: ledger, DefaultCategoryID: defaultCategoryID, Log: log.WithField("component", "market")}
}

type ItemFilter struct {
	ItemType string
	Rarity   string
	MaxCost  *int64
}

// Items lists available catalog items, cheapest first
func (s *MarketService) Items(ctx context.Context, f ItemFilter) ([]models.MarketItem, error) {
	db := s.DB.WithContext(ctx).Where("is_available = ?", true)
	if f.ItemType != "" {
		db = db.Where("item_type = ?", strings.ToLower(f.ItemType))
	}
	if f.Rarity != "" {
		db = db.Where("rarity = ?", strings.ToLower(f.Rarity))
	}
	if f.MaxCost != nil {
		db = db.Where("xp_cost <= ?", *f.MaxCost)
	}
	var items []models.MarketItem
	if err := db.Order("xp_cost ASC, id ASC").Find(&items).Error; err != nil {
		return nil, persist("list market items", err)
	}
	return items, nil
}

func (s *MarketService) Item(ctx context.Context, id uint) (*models.MarketItem, error) {
	var item models.MarketItem
	err := s.DB.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("market item", id)
	}
	if err != nil {
		return nil, persist("get market item", err)
	}
	if !item.IsAvailable {
		return nil, notFound("market item", id)
	}
	return &item, nil
}

type PurchaseResult struct {
	Message     string             `json:"message"`
	Item        *models.MarketItem `json:"item"`
	Purchase    *models.Purchase   `json:"purchase"`
	RemainingXP int64              `json:"remaining_xp"`
	UserLevel   int                `json:"user_level"`
	Spent       []*LedgerResult    `json:"spent"`
}

// Buy charges the item's cost and records the purchase in one transaction.
// XP comes out of categoryID first (0 means the default), then the user's
// other categories by descending XP, so the aggregate always drops by the full cost.
func (s *MarketService) Buy(ctx context.Context, userID, itemID, categoryID uint) (*PurchaseResult, error) {
	if categoryID == 0 {
		categoryID = s.DefaultCategoryID
	}
	item, err := s.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}

	res := &PurchaseResult{Item: item}
	err = s.Ledger.RunLocked(ctx, userID, func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}

		var owned int64
		if err := tx.Model(&models.Purchase{}).Where("user_id = ? AND item_id = ?", userID, itemID).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return &ValidationError{Field: "item_id", Message: "item already owned", Kind: ErrConflict}
		}

		var stats models.UserStats
		found := tx.Where("user_id = ?", userID).Limit(1).Find(&stats)
		if found.Error != nil {
			return found.Error
		}
		if stats.TotalXP < item.XPCost {
			return &ValidationError{
				Field:   "xp",
				Message: fmt.Sprintf("insufficient XP. Required: %d, Available: %d", item.XPCost, stats.TotalXP),
				Kind:    ErrInsufficientXP,
			}
		}

		spent, err := s.spend(tx, userID, categoryID, item.XPCost, "market_purchase:"+item.Name)
		if err != nil {
			return err
		}
		res.Spent = spent

		p := &models.Purchase{UserID: userID, ItemID: item.ID, CategoryID: categoryID, XPSpent: item.XPCost}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		res.Purchase = p
		return nil
	})
	if err != nil {
		return nil, persist("buy item", err)
	}

	for _, lr := range res.Spent {
		s.Ledger.Observe(lr)
	}
	last := res.Spent[len(res.Spent)-1]
	res.RemainingXP = last.TotalXP
	res.UserLevel = last.OverallLevel
	res.Message = fmt.Sprintf("Successfully purchased %s!", item.Name)

	s.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"item_id":      item.ID,
		"xp_cost":      item.XPCost,
		"remaining_xp": res.RemainingXP,
	}).Info("🛒 item purchased")
	return res, nil
}

// spend deducts cost across the user's categories, preferred category first
func (s *MarketService) spend(tx *gorm.DB, userID, preferred uint, cost int64, reason string) ([]*LedgerResult, error) {
	var levels []models.CategoryLevel
	if err := tx.Where("user_id = ? AND xp > 0", userID).
		Order("xp DESC, category_id ASC").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	for i, l := range levels {
		if l.CategoryID == preferred && i > 0 {
			copy(levels[1:i+1], levels[:i])
			levels[0] = l
			break
		}
	}

	var out []*LedgerResult
	remaining := cost
	for _, l := range levels {
		if remaining == 0 {
			break
		}
		lr, err := s.Ledger.DeductXPTx(tx, userID, l.CategoryID, remaining, reason)
		if err != nil {
			return nil, err
		}
		remaining -= lr.XPDeducted
		out = append(out, lr)
	}
	if remaining > 0 || len(out) == 0 {
		return nil, &ValidationError{Field: "xp", Message: "insufficient category XP", Kind: ErrInsufficientXP}
	}
	return out, nil
}

// Inventory lists the user's purchases, newest first
func (s *MarketService) Inventory(ctx context.Context, userID uint) ([]models.Purchase, error) {
	var items []models.Purchase
	err := s.DB.WithContext(ctx).Preload("Item").
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, persist("inventory", err)
	}
	return items, nil
}

// Affordable lists available items the user can pay for with their current total XP
func (s *MarketService) Affordable(ctx context.Context, userID uint) ([]models.MarketItem, error) {
	var stats models.UserStats
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user stats", userID)
	}
	if err != nil {
		return nil, persist("affordable items", err)
	}
	budget := stats.TotalXP
	return s.Items(ctx, ItemFilter{MaxCost: &budget})
}
