package rental

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
	"github.com/joyrent/game-rental-backend/internal/common/metrics"
	"github.com/joyrent/game-rental-backend/internal/common/tracing"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/repository"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

// 评价相关默认值
const (
	DefaultAutoMatchLimit  = 10
	DefaultSubmitLockTTL   = 10 * time.Second
	DefaultAnalyzerTimeout = 3 * time.Second
	MaxReviewContentLength = 1000
)

// ReviewOptions 评价服务参数
type ReviewOptions struct {
	AutoMatchLimit  int
	SubmitLockTTL   time.Duration
	AnalyzerTimeout time.Duration
}

func (o *ReviewOptions) normalize() {
	if o.AutoMatchLimit <= 0 {
		o.AutoMatchLimit = DefaultAutoMatchLimit
	}
	if o.SubmitLockTTL <= 0 {
		o.SubmitLockTTL = DefaultSubmitLockTTL
	}
	if o.AnalyzerTimeout <= 0 {
		o.AnalyzerTimeout = DefaultAnalyzerTimeout
	}
}

// ReviewService 游戏评价服务
type ReviewService struct {
	orderRepo  *repository.OrderRepository
	reviewRepo *repository.ReviewRepository
	analyzer   sentiment.Analyzer
	locker     SubmitLocker
	metrics    *metrics.Metrics
	opts       ReviewOptions
}

// NewReviewService 创建评价服务
// locker 与 m 可以为 nil，分别表示不加提交锁、不记录指标
func NewReviewService(
	orderRepo *repository.OrderRepository,
	reviewRepo *repository.ReviewRepository,
	analyzer sentiment.Analyzer,
	locker SubmitLocker,
	m *metrics.Metrics,
	opts ReviewOptions,
) *ReviewService {
	opts.normalize()
	return &ReviewService{
		orderRepo:  orderRepo,
		reviewRepo: reviewRepo,
		analyzer:   analyzer,
		locker:     locker,
		metrics:    m,
		opts:       opts,
	}
}

// SubmitReviewRequest 提交评价请求，OrderID 为空时自动匹配订单
type SubmitReviewRequest struct {
	GameID  int64  `json:"game_id" binding:"required"`
	OrderID *int64 `json:"order_id"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Content string `json:"content" binding:"required"`
}

// SubmitReviewResult 提交评价结果
type SubmitReviewResult struct {
	ReviewID   int64           `json:"review_id"`
	OrderID    int64           `json:"order_id"`
	GameID     int64           `json:"game_id"`
	AIScore    decimal.Decimal `json:"ai_score"`
	Dimensions map[string]int8 `json:"dimensions"`
}

// ReviewInfo 评价信息
type ReviewInfo struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	GameID     int64           `json:"game_id"`
	Rating     int             `json:"rating"`
	Content    string          `json:"content"`
	AIScore    decimal.Decimal `json:"ai_score"`
	Dimensions map[string]int8 `json:"dimensions"`
	Mine       bool            `json:"mine"` // 是否为当前登录用户的评价
	CreatedAt  time.Time       `json:"created_at"`
}

// SubmitReview 提交评价
func (s *ReviewService) SubmitReview(ctx context.Context, userID int64, req *SubmitReviewRequest) (result *SubmitReviewResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "rental.SubmitReview",
		tracing.WithUserID(userID),
		tracing.WithGameID(req.GameID),
	)
	defer func() {
		tracing.EndSpan(span, err)
		if s.metrics != nil {
			s.metrics.RecordReview(metrics.ResultLabel(err))
		}
	}()

	content := strings.TrimSpace(req.Content)
	if err := validateReview(req.GameID, req.Rating, content); err != nil {
		return nil, err
	}

	unlock, err := s.acquireSubmitLock(ctx, userID, req.GameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	orderID, err := s.matchOrder(ctx, userID, req.GameID, req.OrderID)
	if err != nil {
		return nil, err
	}

	scoring, err := s.analyze(ctx, userID, content)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		OrderID: orderID,
		GameID:  req.GameID,
		UserID:  userID,
		Rating:  req.Rating,
		Content: content,
	}
	scoring.apply(review)

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, errors.ErrDuplicateReview
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &SubmitReviewResult{
		ReviewID:   review.ID,
		OrderID:    review.OrderID,
		GameID:     review.GameID,
		AIScore:    review.AIScore,
		Dimensions: dimensionsOf(review),
	}, nil
}

func validateReview(gameID int64, rating int, content string) error {
	if gameID <= 0 {
		return errors.ErrInvalidParams.WithMessage("无效的游戏ID")
	}
	if rating < 1 || rating > 5 {
		return errors.ErrInvalidParams.WithMessage("评分需在 1-5 之间")
	}
	if content == "" {
		return errors.ErrInvalidParams.WithMessage("评价内容不能为空")
	}
	if utf8.RuneCountInString(content) > MaxReviewContentLength {
		return errors.ErrInvalidParams.WithMessagef("评价内容不能超过 %d 字", MaxReviewContentLength)
	}
	return nil
}

// acquireSubmitLock 同一用户同一游戏同时只处理一个提交
// 锁被占用返回冲突；Redis 故障时放行，重复评价由唯一索引兜底
func (s *ReviewService) acquireSubmitLock(ctx context.Context, userID, gameID int64) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := cache.BuildKey(cache.KeyPrefixReviewSubmit,
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(gameID, 10),
	)
	unlock, err := s.locker.TryLock(ctx, key, s.opts.SubmitLockTTL)
	if err == nil {
		return unlock, nil
	}
	if stderrors.Is(err, cache.ErrLockHeld) {
		return nil, errors.ErrReviewSubmitting
	}
	logger.Warn("评价提交锁不可用，继续处理",
		logger.UserID(userID),
		logger.GameID(gameID),
		logger.Err(err),
	)
	return noop, nil
}

// matchOrder 确定评价归属的订单
func (s *ReviewService) matchOrder(ctx context.Context, userID, gameID int64, orderID *int64) (int64, error) {
	if orderID == nil || *orderID == 0 {
		return s.autoMatchOrder(ctx, userID, gameID)
	}

	order, err := s.orderRepo.GetWithItems(ctx, *orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, errors.ErrOrderNotFound
		}
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if !order.IsOwnedBy(userID) {
		return 0, errors.ErrNotOwner
	}
	if !order.Status.Received() {
		return 0, errors.ErrOrderNotReceived
	}
	if !order.HasGame(gameID) {
		return 0, errors.ErrGameNotInOrder
	}

	exists, err := s.reviewRepo.ExistsByOrderAndGame(ctx, order.ID, gameID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return 0, errors.ErrDuplicateReview
	}
	return order.ID, nil
}

// autoMatchOrder 在最近的已收货订单中选择第一个包含该游戏且尚未评价的
func (s *ReviewService) autoMatchOrder(ctx context.Context, userID, gameID int64) (int64, error) {
	orders, err := s.orderRepo.ListReceivedByUser(ctx, userID, s.opts.AutoMatchLimit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	candidates := make([]int64, 0, len(orders))
	for _, order := range orders {
		if order.HasGame(gameID) {
			candidates = append(candidates, order.ID)
		}
	}
	if len(candidates) == 0 {
		return 0, errors.ErrNoEligibleOrder
	}

	reviewed, err := s.reviewRepo.ReviewedOrderIDs(ctx, candidates, gameID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	for _, id := range candidates {
		if !reviewed[id] {
			return id, nil
		}
	}
	return 0, errors.ErrNoEligibleOrder
}

// analyze 调用情感分析；拦截返回 ContentRejected，其余失败按默认值放行
func (s *ReviewService) analyze(ctx context.Context, userID int64, content string) (*reviewScoring, error) {
	if s.analyzer == nil {
		return degradedScoring(), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.AnalyzerTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.analyzer.Analyze(callCtx, content)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		s.recordAnalyzer(metrics.AnalyzerOutcomeDegraded, elapsed)
		logger.Warn("情感分析不可用，按默认值保存评价",
			logger.UserID(userID),
			logger.Latency(elapsed),
			logger.Err(err),
		)
		return degradedScoring(), nil
	case res.Blocked:
		s.recordAnalyzer(metrics.AnalyzerOutcomeBlocked, elapsed)
		msg := "评价内容未通过审核"
		if res.Reason != "" {
			msg += ": " + res.Reason
		}
		return nil, errors.ErrContentRejected.WithMessage(msg)
	}

	scoring, err := scoreResult(res)
	if err != nil {
		s.recordAnalyzer(metrics.AnalyzerOutcomeDegraded, elapsed)
		logger.Warn("情感分析结果异常，按默认值保存评价",
			logger.UserID(userID),
			logger.Err(err),
		)
		return degradedScoring(), nil
	}
	s.recordAnalyzer(metrics.AnalyzerOutcomeNormal, elapsed)
	return scoring, nil
}

func (s *ReviewService) recordAnalyzer(outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordAnalyzerCall(outcome, d)
	}
}

// ListByGame 分页获取游戏的可见评价，viewerID 为 0 表示匿名访问
func (s *ReviewService) ListByGame(ctx context.Context, viewerID, gameID int64, page, pageSize int) ([]*ReviewInfo, int64, error) {
	reviews, total, err := s.reviewRepo.ListVisibleByGame(ctx, gameID, page, pageSize)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*ReviewInfo, 0, len(reviews))
	for _, r := range reviews {
		list = append(list, &ReviewInfo{
			ID:         r.ID,
			UserID:     r.UserID,
			GameID:     r.GameID,
			Rating:     r.Rating,
			Content:    r.Content,
			AIScore:    r.AIScore,
			Dimensions: dimensionsOf(r),
			Mine:       viewerID > 0 && r.UserID == viewerID,
			CreatedAt:  r.CreatedAt,
		})
	}
	return list, total, nil
}

// GetStats 获取游戏评价统计
func (s *ReviewService) GetStats(ctx context.Context, gameID int64) (*models.ReviewStats, error) {
	stats, err := s.reviewRepo.Stats(ctx, gameID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return stats, nil
}

func dimensionsOf(r *models.Review) map[string]int8 {
	dims := make(map[string]int8, len(models.Dimensions))
	for _, name := range models.Dimensions {
		dims[name] = r.Dimension(name)
	}
	return dims
}
