package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestIdempotencyGuard_AcquireAndDeliver(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	guard := NewIdempotencyGuard(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	lock, err := guard.Acquire(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, lock.retryCount)

	// a concurrent consumer cannot take the same lock
	_, err = guard.Acquire(ctx, "r1")
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, guard.MarkDelivered(ctx, lock))

	delivered, err := guard.IsDelivered(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, delivered)

	// once delivered, every later acquire is refused
	_, err = guard.Acquire(ctx, "r1")
	assert.ErrorIs(t, err, ErrAlreadyDelivered)
}

func TestIdempotencyGuard_RetriesAreCapped(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 2
	guard := NewIdempotencyGuard(adapter, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		lock, err := guard.Acquire(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, i, lock.retryCount)
		guard.MarkFailed(ctx, lock, errors.New("endpoint down"))
	}

	count, err := guard.RetryCount(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = guard.Acquire(ctx, "r2")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestIdempotencyGuard_ReleaseAllowsReacquire(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	guard := NewIdempotencyGuard(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	lock, err := guard.Acquire(ctx, "r3")
	require.NoError(t, err)

	guard.Release(ctx, lock)

	_, err = guard.Acquire(ctx, "r3")
	assert.NoError(t, err)
}

func TestRenderReceipt(t *testing.T) {
	event := &model.ReceiptEvent{
		TransactionID: uuid.New(),
		InvoiceNumber: "INV-00007",
		Kind:          model.ReceiptSale,
		Amount:        149.5,
		OccurredAt:    time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	body := renderReceipt(event)
	assert.Contains(t, body, "SALE RECEIPT")
	assert.Contains(t, body, "INV-00007")
	assert.Contains(t, body, "149.50")
	assert.Contains(t, body, "2025-03-14 09:30")

	event.Kind = model.ReceiptKind("fax")
	assert.Contains(t, renderReceipt(event), "RECEIPT")
}
