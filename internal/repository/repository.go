// Package repository 提供数据访问层
// 所有仓储经 database.Conn 取连接，context 中带有事务时自动加入该事务
package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = gorm.ErrRecordNotFound

// ErrStatusConflict 订单状态迁移不合法或已被并发修改
var ErrStatusConflict = errors.New("repository: order status conflict")

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey 判断是否为唯一约束冲突，需开启 TranslateError
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
