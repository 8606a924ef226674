// Package rental 提供游戏租赁的下单、支付、购物车与评价服务
package rental

import (
	"context"
	"time"

	"github.com/joyrent/game-rental-backend/internal/models"
)

// CatalogLookup 游戏目录查询，只读
// 游戏不存在时返回 repository.ErrNotFound
type CatalogLookup interface {
	GetPriceSnapshot(ctx context.Context, gameID int64) (*models.PriceSnapshot, error)
}

// AddressBook 地址簿查询，只读
type AddressBook interface {
	GetByID(ctx context.Context, addressID int64) (*models.Address, error)
}

// SubmitLocker 评价提交互斥锁，由 cache.Locker 实现
type SubmitLocker interface {
	TryLock(ctx context.Context, key string, expiry time.Duration) (func(), error)
}
