package models

import (
	"time"
)

// Address 收货地址，由地址簿服务维护
type Address struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	ReceiverName  string    `gorm:"type:varchar(50);not null" json:"receiver_name"`
	ReceiverPhone string    `gorm:"type:varchar(20);not null" json:"receiver_phone"`
	Province      string    `gorm:"type:varchar(50);not null" json:"province"`
	City          string    `gorm:"type:varchar(50);not null" json:"city"`
	District      string    `gorm:"type:varchar(50);not null" json:"district"`
	Detail        string    `gorm:"type:varchar(255);not null" json:"detail"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Address) TableName() string {
	return "addresses"
}

// FullAddress 拼接完整地址
func (a *Address) FullAddress() string {
	return a.Province + a.City + a.District + a.Detail
}

// IsOwnedBy 是否属于指定用户
func (a *Address) IsOwnedBy(userID int64) bool {
	return a.UserID == userID
}
