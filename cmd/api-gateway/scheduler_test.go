package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyrent/game-rental-backend/internal/common/config"
)

type countingCloser struct {
	calls atomic.Int32
}

func (c *countingCloser) CloseExpiredOrders(ctx context.Context, before time.Time, limit int) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestStartOrderScheduler_DisabledByDefault(t *testing.T) {
	closer := &countingCloser{}

	sched := startOrderScheduler(&config.OrderConfig{PendingTimeoutMinutes: 30}, closer)
	assert.Nil(t, sched)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, closer.calls.Load())
}

func TestStartOrderScheduler_Enabled(t *testing.T) {
	closer := &countingCloser{}

	sched := startOrderScheduler(&config.OrderConfig{
		AutoCloseEnabled:      true,
		PendingTimeoutMinutes: 30,
		CloseIntervalSeconds:  60,
		CloseBatchSize:        10,
	}, closer)
	require.NotNil(t, sched)
	t.Cleanup(sched.Stop)

	assert.Eventually(t, func() bool { return closer.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
}
