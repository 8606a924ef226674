package cache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = stderrors.New("cache: lock is held by another holder")

// Locker 基于 redsync 的分布式互斥锁
type Locker struct {
	rs *redsync.Redsync
}

// NewLocker 创建分布式锁
func NewLocker(client *redis.Client) *Locker {
	return &Locker{rs: redsync.New(goredis.NewPool(client))}
}

// TryLock 只尝试一次获取锁
// 锁被占用时返回 ErrLockHeld；Redis 不可用等其他错误原样返回，由调用方决定是否降级
func (l *Locker) TryLock(ctx context.Context, key string, expiry time.Duration) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if stderrors.As(err, &taken) || stderrors.Is(err, redsync.ErrFailed) {
			return nil, ErrLockHeld
		}
		return nil, err
	}

	unlock := func() {
		// 使用独立 context，请求取消后仍能释放锁
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = mutex.UnlockContext(ctx)
	}
	return unlock, nil
}
