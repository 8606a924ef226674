// Package main 是应用程序入口
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/joyrent/game-rental-backend/docs"
	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/config"
	"github.com/joyrent/game-rental-backend/internal/common/jwt"
	"github.com/joyrent/game-rental-backend/internal/common/metrics"
	commonmw "github.com/joyrent/game-rental-backend/internal/common/middleware"
	rentalHandler "github.com/joyrent/game-rental-backend/internal/handler/rental"
	"github.com/joyrent/game-rental-backend/internal/middleware"
	"github.com/joyrent/game-rental-backend/internal/repository"
	rentalService "github.com/joyrent/game-rental-backend/internal/service/rental"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

// 请求体上限
const maxRequestBody = 1 << 20

// 不需要追踪和访问日志的路径
var probePaths = []string{"/health", "/ping", "/ready", "/metrics"}

// setupRouter 设置路由，返回订单服务供定时任务使用
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *rentalService.OrderService {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Server.Name)
	}

	// 初始化仓储
	gameRepo := repository.NewGameRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	// 情感分析服务，关闭时所有评价按降级处理
	var analyzer sentiment.Analyzer
	if cfg.Analyzer.Enabled {
		analyzer = sentiment.NewHTTPClient(sentiment.Config{
			BaseURL: cfg.Analyzer.BaseURL,
			Timeout: cfg.Analyzer.Timeout(),
		})
	} else {
		analyzer = sentiment.NewMockClient(nil, sentiment.ErrDependencyDegraded)
	}

	// 初始化服务
	orderSvc := rentalService.NewOrderService(db, orderRepo, cartRepo, gameRepo, addressRepo, m)
	cartSvc := rentalService.NewCartService(cartRepo, gameRepo, cfg.Business.Cart.MaxRentDays)
	reviewSvc := rentalService.NewReviewService(orderRepo, reviewRepo, analyzer, cache.NewLocker(redisClient), m,
		rentalService.ReviewOptions{
			AutoMatchLimit:  cfg.Business.Review.AutoMatchLimit,
			SubmitLockTTL:   cfg.Business.Review.SubmitLockDuration(),
			AnalyzerTimeout: cfg.Analyzer.Timeout(),
		},
	)

	// 初始化处理器
	orderH := rentalHandler.NewOrderHandler(orderSvc)
	cartH := rentalHandler.NewCartHandler(cartSvc)
	reviewH := rentalHandler.NewReviewHandler(reviewSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(commonmw.Tracing(&commonmw.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   probePaths,
		}))
	}
	if m != nil {
		r.Use(m.Middleware())
	}
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestSizeLimiter(maxRequestBody))
	r.Use(middleware.CORS(middleware.CORSConfigFrom(&cfg.CORS)))
	r.Use(middleware.AccessLog(logger))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	if m != nil {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	if cfg.IsDebug() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 下单、支付和评价按用户限流
	var writeLimit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		writeLimit = append(writeLimit, middleware.UserRateLimit(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window()))
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		reviewH.RegisterPublicRoutes(v1, middleware.OptionalAuth(jwtManager))

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			cartH.RegisterRoutes(user)
			orderH.RegisterRoutes(user, writeLimit...)
			reviewH.RegisterRoutes(user, writeLimit...)
		}
	}

	return orderSvc
}
