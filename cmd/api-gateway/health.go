// Package main 是应用程序入口
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
)

const readyCheckTimeout = 3 * time.Second

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// healthHandler 健康检查（简单版）
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

// pingHandler Ping 检查
func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler 就绪检查，数据库或 Redis 不通时返回 503
// 情感分析服务失败会降级，不参与就绪判断
func readyHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": checkStatus(database.Ping(ctx, db)),
			"redis":    checkStatus(redisClient.Ping(ctx).Err()),
		}

		status := http.StatusOK
		statusText := "ready"
		for _, v := range checks {
			if v != "ok" {
				status = http.StatusServiceUnavailable
				statusText = "not ready"
				break
			}
		}

		c.JSON(status, HealthResponse{
			Status:    statusText,
			Timestamp: time.Now().Unix(),
			Checks:    checks,
		})
	}
}

func checkStatus(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
