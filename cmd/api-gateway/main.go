// Package main 是应用程序入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/config"
	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
	"github.com/joyrent/game-rental-backend/internal/common/tracing"
	"github.com/joyrent/game-rental-backend/internal/scheduler"
)

var version = "1.0.0"

// @title Game Rental API
// @version 1.0
// @description 游戏租赁下单、支付与评价接口
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.GetLogger()

	log.Info("Starting Game Rental Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化链路追踪
	tracer, err := tracing.Init(context.Background(), &tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// 初始化 Redis 连接
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected successfully")

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	orderSvc := setupRouter(engine, cfg, log, db, redisClient)

	sched := startOrderScheduler(&cfg.Business.Order, orderSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush spans", zap.Error(err))
	}
	if err := cache.Close(); err != nil {
		log.Warn("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}

	log.Info("Server exited")
}

// startOrderScheduler 启用超时关单时启动定时任务，未启用返回 nil
func startOrderScheduler(cfg *config.OrderConfig, orders scheduler.OrderCloser) *scheduler.Scheduler {
	if !cfg.AutoCloseEnabled {
		return nil
	}

	sched := scheduler.NewScheduler()
	scheduler.SetupTasks(sched, scheduler.NewTaskHandler(orders, scheduler.TaskConfig{
		PendingTimeout: cfg.PendingTimeout(),
		CloseInterval:  cfg.CloseInterval(),
		CloseBatch:     cfg.CloseBatchSize,
	}))
	sched.Start()
	return sched
}
