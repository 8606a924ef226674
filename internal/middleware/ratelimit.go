// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
	"github.com/joyrent/game-rental-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Limit       int           // 窗口内允许的请求数
	Window      time.Duration // 时间窗口
	KeyFunc     func(*gin.Context) string
}

// RateLimit 固定窗口限流中间件
// Redis 不可用时放行
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		ctx := c.Request.Context()

		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("限流计数失败，放行请求", zap.String("key", key), logger.Err(err))
			c.Next()
			return
		}

		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))

		if int(count) > config.Limit {
			ttl, _ := config.RedisClient.TTL(ctx, key).Result()
			if ttl < 0 {
				ttl = config.Window
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))

			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(config.Limit-int(count)))
		c.Next()
	}
}

// UserRateLimit 按用户限流，未登录时按 IP
func UserRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetUserID(c); userID > 0 {
				return cache.BuildKey(cache.KeyPrefixRateLimit, "user", strconv.FormatInt(userID, 10))
			}
			return cache.BuildKey(cache.KeyPrefixRateLimit, "ip", c.ClientIP())
		},
	})
}
