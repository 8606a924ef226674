package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joyrent/game-rental-backend/internal/common/logger"
)

// 每轮最多关闭的订单数
const defaultCloseBatch = 100

// OrderCloser 关闭超时未支付订单，由 rental.OrderService 实现
type OrderCloser interface {
	CloseExpiredOrders(ctx context.Context, before time.Time, limit int) (int, error)
}

// TaskConfig 任务配置
type TaskConfig struct {
	PendingTimeout time.Duration // 待支付订单保留时长
	CloseInterval  time.Duration
	CloseBatch     int
}

// TaskHandler 任务处理器
type TaskHandler struct {
	orders OrderCloser
	cfg    TaskConfig
	now    func() time.Time
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(orders OrderCloser, cfg TaskConfig) *TaskHandler {
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = 30 * time.Minute
	}
	if cfg.CloseInterval <= 0 {
		cfg.CloseInterval = time.Minute
	}
	if cfg.CloseBatch <= 0 {
		cfg.CloseBatch = defaultCloseBatch
	}
	return &TaskHandler{orders: orders, cfg: cfg, now: time.Now}
}

// CloseExpiredOrders 关闭超时未支付的订单
func (h *TaskHandler) CloseExpiredOrders(ctx context.Context) error {
	closed, err := h.orders.CloseExpiredOrders(ctx, h.now().Add(-h.cfg.PendingTimeout), h.cfg.CloseBatch)
	if err != nil {
		return err
	}
	if closed > 0 {
		logger.Info("closed expired orders", zap.Int("count", closed))
	}
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler) {
	scheduler.AddTask("CloseExpiredOrders", handler.cfg.CloseInterval, handler.CloseExpiredOrders)
}
