//go:build integration

package rental

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyrent/game-rental-backend/internal/common/cache"
	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/repository"
	"github.com/joyrent/game-rental-backend/internal/testutil"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

// 在真实 Postgres 与 Redis 上跑完整的下单、支付、评价流程
func TestRentalFlow_Postgres(t *testing.T) {
	db := testutil.StartPostgres(t)
	redisClient := testutil.StartRedis(t)
	ctx := context.Background()

	gameRepo := repository.NewGameRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	orderSvc := NewOrderService(db, orderRepo, cartRepo, gameRepo, repository.NewAddressRepository(db), nil)
	analyzer := sentiment.NewMockClient(&sentiment.Result{Dimensions: map[string]sentiment.DimensionResult{
		models.DimensionLogistics: {Label: "😍 好评 (Positive)", Score: "0.90"},
	}}, nil)
	reviewSvc := NewReviewService(orderRepo, reviewRepo, analyzer, cache.NewLocker(redisClient), nil,
		ReviewOptions{SubmitLockTTL: 5 * time.Second})

	game := testutil.NewTestGame("塞尔达传说", "10.00", "50.00")
	address := testutil.NewTestAddress(userU)
	testutil.MustCreate(t, db, game, address)
	line := testutil.NewTestCartItem(userU, game.ID, 3)
	testutil.MustCreate(t, db, line)

	// 并发下单只有一个成功
	const workers = 4
	results := make([]*CreateOrderResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = orderSvc.CreateOrder(ctx, userU, &CreateOrderRequest{
				AddressID:   address.ID,
				CartItemIDs: []int64{line.ID},
			})
		}(i)
	}
	wg.Wait()

	var created *CreateOrderResult
	for i, err := range errs {
		if err == nil {
			require.Nil(t, created, "more than one order created")
			created = results[i]
			continue
		}
		assert.ErrorIs(t, err, errors.ErrEmptySelection)
	}
	require.NotNil(t, created)
	assert.True(t, decimal.RequireFromString("30.00").Equal(created.TotalRentFee))
	assert.True(t, decimal.RequireFromString("50.00").Equal(created.TotalDeposit))

	_, err := orderSvc.PayOrder(ctx, userU, created.OrderID)
	require.NoError(t, err)
	require.NoError(t, orderRepo.TransitionStatus(ctx, created.OrderID,
		models.OrderStatusAwaitingShipment, models.OrderStatusRenting, nil))

	// 并发评价只落一条
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reviewSvc.SubmitReview(ctx, userU, &SubmitReviewRequest{
				GameID:  game.ID,
				Rating:  5,
				Content: "物流很快",
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
		// 锁冲突、唯一约束或已评价后自动匹配不到订单
		assert.True(t,
			stderrors.Is(err, errors.ErrReviewSubmitting) ||
				stderrors.Is(err, errors.ErrDuplicateReview) ||
				stderrors.Is(err, errors.ErrNoEligibleOrder),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stats, err := reviewSvc.GetStats(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Positive[models.DimensionLogistics])
}
