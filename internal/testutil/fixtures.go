package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/models"
)

// NewTestGame 构造上架游戏
func NewTestGame(title, dailyRent, deposit string) *models.Game {
	return &models.Game{
		Title:          title,
		Platform:       "Switch",
		DailyRentPrice: decimal.RequireFromString(dailyRent),
		DepositPrice:   decimal.RequireFromString(deposit),
		AvailableStock: 5,
		Status:         models.GameStatusOnShelf,
	}
}

// NewTestAddress 构造收货地址
func NewTestAddress(userID int64) *models.Address {
	return &models.Address{
		UserID:        userID,
		ReceiverName:  "张三",
		ReceiverPhone: "13800138000",
		Province:      "广东省",
		City:          "深圳市",
		District:      "南山区",
		Detail:        "科技园 1 号",
		IsDefault:     true,
	}
}

// NewTestCartItem 构造购物车条目
func NewTestCartItem(userID, gameID int64, rentDays int) *models.CartItem {
	return &models.CartItem{UserID: userID, GameID: gameID, RentDays: rentDays}
}

// NewTestOrder 构造指定状态的订单，每个游戏一条明细
func NewTestOrder(userID, addressID int64, status models.OrderStatus, games ...*models.Game) *models.Order {
	now := time.Now()
	order := &models.Order{
		UserID:    userID,
		AddressID: addressID,
		Status:    status,
	}
	for _, g := range games {
		sub := g.DailyRentPrice.Mul(decimal.NewFromInt(3))
		order.TotalRentFee = order.TotalRentFee.Add(sub)
		order.TotalDeposit = order.TotalDeposit.Add(g.DepositPrice)
		order.Items = append(order.Items, models.OrderItem{
			GameID:         g.ID,
			DailyRentPrice: g.DailyRentPrice,
			SubTotal:       sub,
			RentDays:       3,
			StartDate:      now,
			PlanEndDate:    now.AddDate(0, 0, 3),
		})
	}
	order.PayAmount = order.TotalRentFee
	return order
}

// MustCreate 写入测试数据，失败时终止测试
func MustCreate(t *testing.T, db *gorm.DB, values ...interface{}) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, db.Create(v).Error)
	}
}
