package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/pkg/sentiment"
)

// MockCatalog 游戏目录 mock
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetPriceSnapshot(ctx context.Context, gameID int64) (*models.PriceSnapshot, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceSnapshot), args.Error(1)
}

// MockAddressBook 地址簿 mock
type MockAddressBook struct {
	mock.Mock
}

func (m *MockAddressBook) GetByID(ctx context.Context, addressID int64) (*models.Address, error) {
	args := m.Called(ctx, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

// MockAnalyzer 情感分析 mock
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, text string) (*sentiment.Result, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sentiment.Result), args.Error(1)
}

// MockLocker 提交锁 mock
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, key string, expiry time.Duration) (func(), error) {
	args := m.Called(ctx, key, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
