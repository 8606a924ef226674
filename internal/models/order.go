package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus int8

// 订单状态取值与历史数据保持一致
const (
	OrderStatusPendingPayment   OrderStatus = 10 // 待支付
	OrderStatusAwaitingShipment OrderStatus = 20 // 待发货
	OrderStatusRenting          OrderStatus = 30 // 租赁中
	OrderStatusReturning        OrderStatus = 40 // 归还中
	OrderStatusCompleted        OrderStatus = 50 // 已完成
	OrderStatusCancelled        OrderStatus = 60 // 已取消
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPendingPayment:   "待支付",
	OrderStatusAwaitingShipment: "待发货",
	OrderStatusRenting:          "租赁中",
	OrderStatusReturning:        "归还中",
	OrderStatusCompleted:        "已完成",
	OrderStatusCancelled:        "已取消",
}

// orderTransitions 允许的状态迁移
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:   {OrderStatusAwaitingShipment, OrderStatusCancelled},
	OrderStatusAwaitingShipment: {OrderStatusRenting},
	OrderStatusRenting:          {OrderStatusReturning},
	OrderStatusReturning:        {OrderStatusCompleted},
}

// AllOrderStatuses 全部订单状态，按流转顺序
var AllOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusAwaitingShipment,
	OrderStatusRenting,
	OrderStatusReturning,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ReceivedOrderStatuses 用户已收到游戏的状态，可以发表评价
var ReceivedOrderStatuses = []OrderStatus{
	OrderStatusRenting,
	OrderStatusReturning,
	OrderStatusCompleted,
}

// Valid 是否为已定义的状态
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// String 状态名称
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "未知"
}

// CanTransitionTo 是否允许迁移到 next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Received 用户是否已收到游戏
func (s OrderStatus) Received() bool {
	for _, st := range ReceivedOrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Order 租赁订单
type Order struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               int64           `gorm:"index:idx_orders_user_created,priority:1;not null" json:"user_id"`
	AddressID            int64           `gorm:"not null" json:"address_id"`
	Status               OrderStatus     `gorm:"type:smallint;not null;default:10;index" json:"status"`
	TotalRentFee         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_rent_fee"`
	TotalDeposit         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_deposit"`
	PayAmount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"pay_amount"`
	TrackingNumberSend   *string         `gorm:"type:varchar(64)" json:"tracking_number_send,omitempty"`
	TrackingNumberReturn *string         `gorm:"type:varchar(64)" json:"tracking_number_return,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime;index:idx_orders_user_created,priority:2" json:"created_at"`
	PayTime              *time.Time      `json:"pay_time,omitempty"`
	FinishedTime         *time.Time      `json:"finished_time,omitempty"`

	// 关联
	Address *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// IsOwnedBy 是否属于指定用户
func (o *Order) IsOwnedBy(userID int64) bool {
	return o.UserID == userID
}

// HasGame 订单是否包含指定游戏，需预加载 Items
func (o *Order) HasGame(gameID int64) bool {
	for i := range o.Items {
		if o.Items[i].GameID == gameID {
			return true
		}
	}
	return false
}

// OrderItem 订单明细，价格为下单时的快照
type OrderItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64           `gorm:"index;not null" json:"order_id"`
	GameID         int64           `gorm:"index;not null" json:"game_id"`
	GameItemID     *int64          `json:"game_item_id,omitempty"` // 发货后填入实体卡带
	DailyRentPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"daily_rent_price"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sub_total"`
	RentDays       int             `gorm:"not null" json:"rent_days"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	PlanEndDate    time.Time       `gorm:"not null" json:"plan_end_date"`
	ActualEndDate  *time.Time      `json:"actual_end_date,omitempty"`
	LateFee        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"late_fee"`
	DamageFee      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"damage_fee"`

	// 关联
	Game *Game `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

// TableName 表名
func (OrderItem) TableName() string {
	return "order_items"
}
