package models

import (
	"time"
)

// CartItem 购物车条目，同一用户同一游戏只有一条
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uk_cart_user_game,priority:1" json:"user_id"`
	GameID    int64     `gorm:"not null;uniqueIndex:uk_cart_user_game,priority:2" json:"game_id"`
	RentDays  int       `gorm:"not null;default:1" json:"rent_days"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Game *Game `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

// TableName 表名
func (CartItem) TableName() string {
	return "cart_items"
}
