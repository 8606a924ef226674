package rental

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/common/metrics"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/repository"
	"github.com/joyrent/game-rental-backend/internal/testutil"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

type reviewFixture struct {
	db   *gorm.DB
	game *models.Game
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	game := testutil.NewTestGame("塞尔达传说", "10.00", "50.00")
	testutil.MustCreate(t, db, game)
	return &reviewFixture{db: db, game: game}
}

func (f *reviewFixture) service(analyzer sentiment.Analyzer, locker SubmitLocker) *ReviewService {
	return NewReviewService(
		repository.NewOrderRepository(f.db),
		repository.NewReviewRepository(f.db),
		analyzer,
		locker,
		metrics.New("test", prometheus.NewRegistry()),
		ReviewOptions{AutoMatchLimit: 10, AnalyzerTimeout: time.Second},
	)
}

func (f *reviewFixture) order(t *testing.T, userID int64, status models.OrderStatus, games ...*models.Game) *models.Order {
	t.Helper()
	o := testutil.NewTestOrder(userID, 1, status, games...)
	testutil.MustCreate(t, f.db, o)
	return o
}

func (f *reviewFixture) reviewCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Review{}).Count(&n).Error)
	return n
}

func okAnalyzer() *testutil.MockAnalyzer {
	a := new(testutil.MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).Return(threeDimResult(), nil)
	return a
}

func TestReviewService_SubmitReview_WithOrder(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusRenting, f.game)
	analyzer := okAnalyzer()
	svc := f.service(analyzer, nil)

	result, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID:  f.game.ID,
		OrderID: &order.ID,
		Rating:  5,
		Content: "  物流很快，画面一般，价格还行  ",
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, "0.8267", result.AIScore.StringFixed(4))
	analyzer.AssertCalled(t, "Analyze", mock.Anything, "物流很快，画面一般，价格还行")

	var saved models.Review
	require.NoError(t, f.db.First(&saved, result.ReviewID).Error)
	assert.Equal(t, userU, saved.UserID)
	assert.Equal(t, "物流很快，画面一般，价格还行", saved.Content)
	assert.Equal(t, "0.8267", saved.AIScore.StringFixed(4))
	assert.Equal(t, models.DimPositive, saved.DimLogistics)
	assert.Equal(t, models.DimNegative, saved.DimVisuals)
	assert.Equal(t, models.DimNeutral, saved.DimPrice)
	assert.Equal(t, models.DimAbsent, saved.DimCondition)
	assert.Equal(t, models.DimAbsent, saved.DimAudio)
	assert.Contains(t, saved.AIEmotion, models.DimensionLogistics)
}

func TestReviewService_SubmitReview_OrderChecks(t *testing.T) {
	f := newReviewFixture(t)
	other := testutil.NewTestGame("马力欧赛车", "8.00", "60.00")
	testutil.MustCreate(t, f.db, other)

	pending := f.order(t, userU, models.OrderStatusPendingPayment, f.game)
	cancelled := f.order(t, userU, models.OrderStatusCancelled, f.game)
	foreign := f.order(t, userV, models.OrderStatusCompleted, f.game)
	otherGame := f.order(t, userU, models.OrderStatusCompleted, other)
	reviewed := f.order(t, userU, models.OrderStatusReturning, f.game)
	testutil.MustCreate(t, f.db, &models.Review{
		OrderID: reviewed.ID, GameID: f.game.ID, UserID: userU, Rating: 4, Content: "不错",
		DimLogistics: 3, DimCondition: 3, DimService: 3, DimPrice: 3,
		DimGameplay: 3, DimVisuals: 3, DimStory: 3, DimAudio: 3,
	})

	missing := int64(9999)
	tests := []struct {
		name    string
		orderID *int64
		wantErr *errors.AppError
	}{
		{"订单不存在", &missing, errors.ErrOrderNotFound},
		{"不是自己的订单", &foreign.ID, errors.ErrNotOwner},
		{"待支付订单", &pending.ID, errors.ErrOrderNotReceived},
		{"已取消订单", &cancelled.ID, errors.ErrOrderNotReceived},
		{"订单不含该游戏", &otherGame.ID, errors.ErrGameNotInOrder},
		{"已评价", &reviewed.ID, errors.ErrDuplicateReview},
	}

	analyzer := okAnalyzer()
	svc := f.service(analyzer, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
				GameID:  f.game.ID,
				OrderID: tt.orderID,
				Rating:  4,
				Content: "好玩",
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	assert.Equal(t, int64(1), f.reviewCount(t))
}

func TestReviewService_SubmitReview_AutoMatch(t *testing.T) {
	f := newReviewFixture(t)
	svc := f.service(okAnalyzer(), nil)
	ctx := context.Background()

	older := f.order(t, userU, models.OrderStatusCompleted, f.game)
	newer := f.order(t, userU, models.OrderStatusRenting, f.game)
	f.order(t, userU, models.OrderStatusPendingPayment, f.game)

	// 先评价较新的订单，自动匹配应跳过它
	_, err := svc.SubmitReview(ctx, userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &newer.ID, Rating: 5, Content: "第一次",
	})
	require.NoError(t, err)

	result, err := svc.SubmitReview(ctx, userU, &SubmitReviewRequest{
		GameID: f.game.ID, Rating: 4, Content: "第二次",
	})
	require.NoError(t, err)
	assert.Equal(t, older.ID, result.OrderID)

	// 两个已收货订单都已评价，待支付订单不参与匹配
	_, err = svc.SubmitReview(ctx, userU, &SubmitReviewRequest{
		GameID: f.game.ID, Rating: 3, Content: "第三次",
	})
	assert.ErrorIs(t, err, errors.ErrNoEligibleOrder)
	assert.Equal(t, int64(2), f.reviewCount(t))
}

func TestReviewService_SubmitReview_AutoMatchPrefersNewest(t *testing.T) {
	f := newReviewFixture(t)
	svc := f.service(okAnalyzer(), nil)

	f.order(t, userU, models.OrderStatusCompleted, f.game)
	newest := f.order(t, userU, models.OrderStatusReturning, f.game)

	result, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, Rating: 5, Content: "好玩",
	})
	require.NoError(t, err)
	assert.Equal(t, newest.ID, result.OrderID)
}

func TestReviewService_SubmitReview_NoEligibleOrder(t *testing.T) {
	f := newReviewFixture(t)
	svc := f.service(okAnalyzer(), nil)

	f.order(t, userV, models.OrderStatusCompleted, f.game)
	f.order(t, userU, models.OrderStatusAwaitingShipment, f.game)

	_, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, Rating: 5, Content: "好玩",
	})
	assert.ErrorIs(t, err, errors.ErrNoEligibleOrder)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestReviewService_SubmitReview_CancelledOrderNotMatched(t *testing.T) {
	f := newReviewFixture(t)
	f.order(t, userU, models.OrderStatusCancelled, f.game)

	analyzer := okAnalyzer()
	_, err := f.service(analyzer, nil).SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, Rating: 4, Content: "好玩",
	})
	assert.ErrorIs(t, err, errors.ErrNoEligibleOrder)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_Validation(t *testing.T) {
	f := newReviewFixture(t)
	analyzer := okAnalyzer()
	svc := f.service(analyzer, nil)

	tests := []struct {
		name string
		req  *SubmitReviewRequest
	}{
		{"评分过低", &SubmitReviewRequest{GameID: f.game.ID, Rating: 0, Content: "好玩"}},
		{"评分过高", &SubmitReviewRequest{GameID: f.game.ID, Rating: 6, Content: "好玩"}},
		{"内容为空", &SubmitReviewRequest{GameID: f.game.ID, Rating: 5, Content: "   "}},
		{"游戏为空", &SubmitReviewRequest{Rating: 5, Content: "好玩"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(context.Background(), userU, tt.req)
			assert.ErrorIs(t, err, errors.ErrInvalidParams)
		})
	}
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_ContentRejected(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	analyzer := new(testutil.MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(&sentiment.Result{Blocked: true, Reason: "spam_detected"}, nil)
	svc := f.service(analyzer, nil)

	_, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 1, Content: "加微信领福利",
	})
	assert.ErrorIs(t, err, errors.ErrContentRejected)
	assert.Equal(t, errors.KindContentRejected, errors.KindOf(err))
	assert.Contains(t, errors.GetAppError(err).Message, "spam_detected")
	assert.Zero(t, f.reviewCount(t))
}

func TestReviewService_SubmitReview_FailOpen(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	analyzer := new(testutil.MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, sentiment.ErrDependencyDegraded)
	svc := f.service(analyzer, nil)

	result, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 4, Content: "挺好",
	})
	require.NoError(t, err)

	var saved models.Review
	require.NoError(t, f.db.First(&saved, result.ReviewID).Error)
	assert.Equal(t, int8(models.AIJudgeNormal), saved.AIJudge)
	assert.True(t, saved.AIScore.IsZero())
	for _, name := range models.Dimensions {
		assert.Equal(t, models.DimAbsent, saved.Dimension(name), name)
	}
}

func TestReviewService_SubmitReview_ScoreOutOfRange(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	analyzer := new(testutil.MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(&sentiment.Result{
		Dimensions: map[string]sentiment.DimensionResult{
			models.DimensionLogistics: {Label: "😍 好评 (Positive)", Score: "87"},
		},
	}, nil)
	svc := f.service(analyzer, nil)

	result, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 5, Content: "发货很快",
	})
	require.NoError(t, err)

	var saved models.Review
	require.NoError(t, f.db.First(&saved, result.ReviewID).Error)
	assert.True(t, saved.AIScore.IsZero())
	assert.Equal(t, models.DimAbsent, saved.DimLogistics)
}

// blockingAnalyzer 一直阻塞到调用方超时
type blockingAnalyzer struct{}

func (blockingAnalyzer) Analyze(ctx context.Context, _ string) (*sentiment.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReviewService_SubmitReview_AnalyzerTimeout(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	svc := NewReviewService(
		repository.NewOrderRepository(f.db),
		repository.NewReviewRepository(f.db),
		blockingAnalyzer{}, nil, nil,
		ReviewOptions{AnalyzerTimeout: 50 * time.Millisecond},
	)

	start := time.Now()
	result, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 4, Content: "挺好",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, result.AIScore.IsZero())
}

func TestReviewService_SubmitReview_ConcurrentDuplicate(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)
	svc := f.service(okAnalyzer(), nil)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
				GameID: f.game.ID, OrderID: &order.ID, Rating: 5, Content: "好玩",
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errors.ErrDuplicateReview)
		assert.Equal(t, errors.KindStateConflict, errors.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.reviewCount(t))
}

func TestReviewService_SubmitReview_HoldsLockWhileAnalyzing(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	key := cache.BuildKey(cache.KeyPrefixReviewSubmit, "1", strconv.FormatInt(f.game.ID, 10))
	analyzer := new(testutil.MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			assert.True(t, s.Exists(key), "分析期间应持有提交锁")
		}).
		Return(threeDimResult(), nil)

	svc := f.service(analyzer, cache.NewLocker(client))
	_, err = svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 5, Content: "好玩",
	})
	require.NoError(t, err)
	assert.False(t, s.Exists(key), "提交完成后应释放锁")
	analyzer.AssertExpectations(t)
}

func TestReviewService_SubmitReview_LockHeld(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	locker := new(testutil.MockLocker)
	locker.On("TryLock", mock.Anything, mock.Anything, DefaultSubmitLockTTL).Return(nil, cache.ErrLockHeld)
	analyzer := okAnalyzer()
	svc := f.service(analyzer, locker)

	_, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 5, Content: "好玩",
	})
	assert.ErrorIs(t, err, errors.ErrReviewSubmitting)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	assert.Zero(t, f.reviewCount(t))
}

func TestReviewService_SubmitReview_LockUnavailable(t *testing.T) {
	f := newReviewFixture(t)
	order := f.order(t, userU, models.OrderStatusCompleted, f.game)

	locker := new(testutil.MockLocker)
	locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stderrors.New("dial tcp: connection refused"))
	svc := f.service(okAnalyzer(), locker)

	_, err := svc.SubmitReview(context.Background(), userU, &SubmitReviewRequest{
		GameID: f.game.ID, OrderID: &order.ID, Rating: 5, Content: "好玩",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.reviewCount(t))
}

// ==================== 查询 ====================

func TestReviewService_ListByGameAndStats(t *testing.T) {
	f := newReviewFixture(t)
	svc := f.service(okAnalyzer(), nil)
	ctx := context.Background()

	o1 := f.order(t, userU, models.OrderStatusCompleted, f.game)
	o2 := f.order(t, userV, models.OrderStatusCompleted, f.game)
	o3 := f.order(t, userV, models.OrderStatusCompleted, f.game)

	r1, err := svc.SubmitReview(ctx, userU, &SubmitReviewRequest{GameID: f.game.ID, OrderID: &o1.ID, Rating: 5, Content: "好玩"})
	require.NoError(t, err)
	_, err = svc.SubmitReview(ctx, userV, &SubmitReviewRequest{GameID: f.game.ID, OrderID: &o2.ID, Rating: 3, Content: "一般"})
	require.NoError(t, err)
	r3, err := svc.SubmitReview(ctx, userV, &SubmitReviewRequest{GameID: f.game.ID, OrderID: &o3.ID, Rating: 1, Content: "隐藏"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Review{}).Where("id = ?", r3.ReviewID).Update("is_hidden", true).Error)

	list, total, err := svc.ListByGame(ctx, userU, f.game.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, r1.ReviewID, list[1].ID)
	assert.True(t, list[1].Mine)
	assert.False(t, list[0].Mine)
	assert.Equal(t, models.DimPositive, list[1].Dimensions[models.DimensionLogistics])

	stats, err := svc.GetStats(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, "4.00", stats.AverageRating.StringFixed(2))
	assert.Equal(t, int64(1), stats.Distribution[5])
	assert.Equal(t, int64(2), stats.Positive[models.DimensionLogistics])
	assert.Equal(t, int64(2), stats.Negative[models.DimensionVisuals])
}

func TestNewReviewService_Defaults(t *testing.T) {
	svc := NewReviewService(nil, nil, nil, nil, nil, ReviewOptions{})
	assert.Equal(t, DefaultAutoMatchLimit, svc.opts.AutoMatchLimit)
	assert.Equal(t, DefaultSubmitLockTTL, svc.opts.SubmitLockTTL)
	assert.Equal(t, DefaultAnalyzerTimeout, svc.opts.AnalyzerTimeout)
}
