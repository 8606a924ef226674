package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game 游戏商品，本服务只读
type Game struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string          `gorm:"type:varchar(200);not null" json:"title"`
	Platform       string          `gorm:"type:varchar(50);not null;default:'Switch'" json:"platform"`
	CoverURL       *string         `gorm:"column:cover_url;type:varchar(255)" json:"cover_url,omitempty"`
	Description    *string         `gorm:"type:text" json:"description,omitempty"`
	DailyRentPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"daily_rent_price"`
	DepositPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"deposit_price"`
	AvailableStock int             `gorm:"not null;default:0" json:"available_stock"`
	Status         int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	TotalRentCount int             `gorm:"not null;default:0" json:"total_rent_count"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Game) TableName() string {
	return "games"
}

// GameStatus 游戏状态
const (
	GameStatusOffShelf = 0 // 下架
	GameStatusOnShelf  = 1 // 上架
)

// IsAvailable 是否可租
func (g *Game) IsAvailable() bool {
	return g.Status == GameStatusOnShelf
}

// PriceSnapshot 下单时的价格快照
type PriceSnapshot struct {
	GameID         int64
	Title          string
	DailyRentPrice decimal.Decimal
	DepositPrice   decimal.Decimal
	Available      bool
}

// Snapshot 生成价格快照
func (g *Game) Snapshot() *PriceSnapshot {
	return &PriceSnapshot{
		GameID:         g.ID,
		Title:          g.Title,
		DailyRentPrice: g.DailyRentPrice,
		DepositPrice:   g.DepositPrice,
		Available:      g.IsAvailable(),
	}
}
