// Package repository 购物车仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/testutil"
)

func setupCartRepo(t *testing.T) (*gorm.DB, *CartRepository, *models.Game) {
	db := testutil.NewTestDB(t)
	game := testutil.NewTestGame("塞尔达传说", "3.00", "200.00")
	testutil.MustCreate(t, db, game)
	return db, NewCartRepository(db), game
}

func TestCartRepository_CreateAndList(t *testing.T) {
	_, repo, game := setupCartRepo(t)
	ctx := context.Background()

	item := testutil.NewTestCartItem(1, game.ID, 5)
	require.NoError(t, repo.Create(ctx, item))
	assert.NotZero(t, item.ID)

	items, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Game)
	assert.Equal(t, "塞尔达传说", items[0].Game.Title)

	count, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_Create_Duplicate(t *testing.T) {
	_, repo, game := setupCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestCartItem(1, game.ID, 1)))
	err := repo.Create(ctx, testutil.NewTestCartItem(1, game.ID, 2))
	assert.True(t, IsDuplicateKey(err))

	// 其他用户可以加入同一游戏
	require.NoError(t, repo.Create(ctx, testutil.NewTestCartItem(2, game.ID, 2)))
}

func TestCartRepository_GetByID_NotFound(t *testing.T) {
	_, repo, _ := setupCartRepo(t)
	_, err := repo.GetByID(context.Background(), 404)
	assert.True(t, IsNotFound(err))
}

func TestCartRepository_ListByIDs(t *testing.T) {
	db, repo, game := setupCartRepo(t)
	other := testutil.NewTestGame("马力欧赛车", "2.00", "150.00")
	testutil.MustCreate(t, db, other)

	a := testutil.NewTestCartItem(1, game.ID, 1)
	b := testutil.NewTestCartItem(2, other.ID, 1)
	testutil.MustCreate(t, db, a, b)

	items, err := repo.ListByIDs(context.Background(), []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepository_UpdateRentDays(t *testing.T) {
	db, repo, game := setupCartRepo(t)
	item := testutil.NewTestCartItem(1, game.ID, 1)
	testutil.MustCreate(t, db, item)
	ctx := context.Background()

	n, err := repo.UpdateRentDays(ctx, item.ID, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 非本人条目不受影响
	n, err = repo.UpdateRentDays(ctx, item.ID, 2, 9)
	require.NoError(t, err)
	assert.Zero(t, n)

	found, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, found.RentDays)
}

func TestCartRepository_DeleteByIDs_OnlyOwn(t *testing.T) {
	db, repo, game := setupCartRepo(t)
	mine := testutil.NewTestCartItem(1, game.ID, 1)
	theirs := testutil.NewTestCartItem(2, game.ID, 1)
	testutil.MustCreate(t, db, mine, theirs)

	n, err := repo.DeleteByIDs(context.Background(), 1, []int64{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(context.Background(), theirs.ID)
	assert.NoError(t, err)
}

func TestCartRepository_DeleteByIDs_InTransaction(t *testing.T) {
	db, repo, game := setupCartRepo(t)
	item := testutil.NewTestCartItem(1, game.ID, 1)
	testutil.MustCreate(t, db, item)

	err := database.Transaction(context.Background(), db, func(ctx context.Context) error {
		n, err := repo.DeleteByIDs(ctx, 1, []int64{item.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// 回滚后条目仍在
	_, err = repo.GetByID(context.Background(), item.ID)
	assert.NoError(t, err)
}

func TestCartRepository_ClearByUser(t *testing.T) {
	db, repo, game := setupCartRepo(t)
	other := testutil.NewTestGame("宝可梦", "4.00", "250.00")
	testutil.MustCreate(t, db, other)
	testutil.MustCreate(t, db,
		testutil.NewTestCartItem(1, game.ID, 1),
		testutil.NewTestCartItem(1, other.ID, 2),
		testutil.NewTestCartItem(2, game.ID, 3),
	)

	n, err := repo.ClearByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := repo.CountByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
