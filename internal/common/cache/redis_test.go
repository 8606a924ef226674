// Package cache Redis 模块单元测试
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyrent/game-rental-backend/internal/common/config"
)

// setupMiniRedis 创建 miniredis 测试实例
func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, s *miniredis.Miniredis) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// ==================== Init 函数测试 ====================

func TestInit_Success(t *testing.T) {
	s := setupMiniRedis(t)

	client, err := Init(&config.RedisConfig{
		Host:         s.Host(),
		Port:         s.Server().Addr().Port,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5,
		ReadTimeout:  3,
		WriteTimeout: 3,
	})
	require.NoError(t, err)
	assert.Same(t, client, GetClient())
	assert.NoError(t, Close())
}

func TestInit_ConnectionFailed(t *testing.T) {
	_, err := Init(&config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		DialTimeout: 1,
	})
	assert.Error(t, err)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "lock:review:submit:7:3", BuildKey(KeyPrefixReviewSubmit, "7", "3"))
	assert.Equal(t, "ratelimit:", BuildKey(KeyPrefixRateLimit))
}

// ==================== 分布式锁测试 ====================

func TestLocker_TryLock(t *testing.T) {
	s := setupMiniRedis(t)
	locker := NewLocker(newTestClient(t, s))
	ctx := context.Background()
	key := BuildKey(KeyPrefixReviewSubmit, "1", "7")

	unlock, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, s.Exists(key))

	// 持有期间再次获取失败
	_, err = locker.TryLock(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	unlock()
	assert.False(t, s.Exists(key))

	// 释放后可以再次获取
	unlock2, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	unlock2()
}

func TestLocker_TryLock_Expired(t *testing.T) {
	s := setupMiniRedis(t)
	locker := NewLocker(newTestClient(t, s))
	ctx := context.Background()

	_, err := locker.TryLock(ctx, "lock:test", time.Second)
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	unlock, err := locker.TryLock(ctx, "lock:test", time.Second)
	require.NoError(t, err)
	unlock()
}

func TestLocker_TryLock_RedisDown(t *testing.T) {
	s := setupMiniRedis(t)
	locker := NewLocker(newTestClient(t, s))
	s.Close()

	_, err := locker.TryLock(context.Background(), "lock:test", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld, "Redis 不可用不应被当作锁冲突")
}
