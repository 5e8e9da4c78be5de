package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemType groups marketplace items
type ItemType string

const (
	ItemTypeTheme    ItemType = "theme"
	ItemTypeBoost    ItemType = "boost"
	ItemTypePerk     ItemType = "perk"
	ItemTypeCosmetic ItemType = "cosmetic"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// MarketItem is a catalog entry purchasable with XP
type MarketItem struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string   `json:"description"`
	XPCost      int64    `gorm:"not null" json:"xp_cost"`
	ItemType    ItemType `gorm:"size:16;index;not null" json:"item_type"`
	Rarity      Rarity   `gorm:"size:16;index;not null" json:"rarity"`
	Icon        string   `gorm:"size:16" json:"icon"`
	IsAvailable bool     `gorm:"not null;default:true" json:"is_available"`
}

// Purchase is an owned item. XP is spent from CategoryID's bucket.
type Purchase struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"user_id"`
	ItemID      uint      `gorm:"uniqueIndex:idx_user_item;not null" json:"item_id"`
	CategoryID  uint      `gorm:"not null" json:"category_id"`
	XPSpent     int64     `gorm:"not null" json:"xp_spent"`
	IsEquipped  bool      `gorm:"not null;default:false" json:"is_equipped"`
	PurchasedAt time.Time `gorm:"autoCreateTime" json:"purchased_at"`

	Item *MarketItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// DefaultMarketItems is the seeded catalog
var DefaultMarketItems = []MarketItem{
	{ID: 1, Name: "Dark Mode Theme", Description: "Sleek dark theme for your dashboard", XPCost: 100, ItemType: ItemTypeTheme, Rarity: RarityCommon, Icon: "🌙", IsAvailable: true},
	{ID: 2, Name: "Ocean Breeze Theme", Description: "Calming blue and teal color scheme", XPCost: 150, ItemType: ItemTypeTheme, Rarity: RarityRare, Icon: "🌊", IsAvailable: true},
	{ID: 3, Name: "2x XP Boost (1 Week)", Description: "Double XP for all activities for 7 days", XPCost: 500, ItemType: ItemTypeBoost, Rarity: RarityEpic, Icon: "⚡", IsAvailable: true},
	{ID: 4, Name: "Productivity Perk", Description: "Unlock advanced task management features", XPCost: 300, ItemType: ItemTypePerk, Rarity: RarityRare, Icon: "🎯", IsAvailable: true},
	{ID: 5, Name: "Golden Crown Badge", Description: "Show off your dedication with this exclusive badge", XPCost: 1000, ItemType: ItemTypeCosmetic, Rarity: RarityLegendary, Icon: "👑", IsAvailable: true},
	{ID: 6, Name: "Forest Green Theme", Description: "Nature-inspired green theme", XPCost: 120, ItemType: ItemTypeTheme, Rarity: RarityCommon, Icon: "🌲", IsAvailable: true},
	{ID: 7, Name: "Focus Mode Perk", Description: "Distraction-free journaling experience", XPCost: 250, ItemType: ItemTypePerk, Rarity: RarityRare, Icon: "🎧", IsAvailable: true},
	{ID: 8, Name: "Cherry Blossom Theme", Description: "Beautiful pink and white sakura theme", XPCost: 200, ItemType: ItemTypeTheme, Rarity: RarityRare, Icon: "🌸", IsAvailable: true},
	{ID: 9, Name: "Streak Freeze", Description: "Protect your streak for one missed day", XPCost: 400, ItemType: ItemTypeBoost, Rarity: RarityEpic, Icon: "❄️", IsAvailable: true},
	{ID: 10, Name: "Diamond Avatar Frame", Description: "Prestigious diamond-encrusted avatar border", XPCost: 1500, ItemType: ItemTypeCosmetic, Rarity: RarityLegendary, Icon: "💎", IsAvailable: true},
}
