package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/redis"
)

var (
	ErrAlreadyDelivered   = errors.New("receipt already delivered")
	ErrLockHeld           = errors.New("failed to acquire delivery lock")
	ErrMaxRetriesExceeded = errors.New("maximum delivery retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL      time.Duration
	DeliveredTTL time.Duration
	MaxRetries   int
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:      30 * time.Second,
		DeliveredTTL: 24 * time.Hour,
		MaxRetries:   3,
	}
}

// IdempotencyGuard keeps a receipt from being delivered twice when consumers
// race or a delivery is retried after a partial failure. A short SETNX lock
// serializes consumers, a long-lived marker records completed deliveries and
// a counter caps retries.
type IdempotencyGuard struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyGuard(adapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyGuard {
	return &IdempotencyGuard{redis: adapter, config: config}
}

type deliveryLock struct {
	receiptID  string
	retryCount int
	held       bool
}

func (g *IdempotencyGuard) lockKey(id string) string      { return "receipt:lock:" + id }
func (g *IdempotencyGuard) retryKey(id string) string     { return "receipt:retry:" + id }
func (g *IdempotencyGuard) deliveredKey(id string) string { return "receipt:delivered:" + id }

func (g *IdempotencyGuard) Acquire(ctx context.Context, receiptID string) (*deliveryLock, error) {
	exists, err := g.redis.Exist(g.deliveredKey(receiptID))
	if err != nil {
		// risk a duplicate rather than stall the stream
		logger.Warn("Failed to check delivered marker", "receipt_id", receiptID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyDelivered
	}

	retryCount := 0
	if raw, err := g.redis.Get(g.retryKey(receiptID)); err == nil && len(raw) > 0 {
		retryCount, _ = strconv.Atoi(string(raw))
	}
	if retryCount >= g.config.MaxRetries {
		return nil, fmt.Errorf("%w: receipt_id=%s, retries=%d", ErrMaxRetriesExceeded, receiptID, retryCount)
	}

	acquired, err := g.redis.SetNX(g.lockKey(receiptID),
		[]byte(strconv.FormatInt(time.Now().UnixNano(), 10)), g.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockHeld, err)
	}
	if !acquired {
		return nil, ErrLockHeld
	}

	return &deliveryLock{receiptID: receiptID, retryCount: retryCount, held: true}, nil
}

func (g *IdempotencyGuard) MarkDelivered(ctx context.Context, lock *deliveryLock) error {
	if err := g.redis.Set(g.deliveredKey(lock.receiptID), []byte("1"), g.config.DeliveredTTL); err != nil {
		return fmt.Errorf("failed to mark receipt delivered: %w", err)
	}
	if err := g.redis.Del(g.lockKey(lock.receiptID)); err != nil {
		logger.Warn("Failed to remove delivery lock", "receipt_id", lock.receiptID, "error", err)
	}
	if err := g.redis.Del(g.retryKey(lock.receiptID)); err != nil {
		logger.Warn("Failed to remove retry counter", "receipt_id", lock.receiptID, "error", err)
	}
	lock.held = false
	return nil
}

func (g *IdempotencyGuard) MarkFailed(ctx context.Context, lock *deliveryLock, reason error) {
	next := lock.retryCount + 1
	if err := g.redis.Set(g.retryKey(lock.receiptID),
		[]byte(strconv.Itoa(next)), g.config.DeliveredTTL); err != nil {
		logger.Error("Failed to bump retry counter", "receipt_id", lock.receiptID, "error", err)
	}
	g.Release(ctx, lock)

	logger.Warn("Receipt delivery failed, will retry",
		"receipt_id", lock.receiptID,
		"retry_count", next,
		"max_retries", g.config.MaxRetries,
		"reason", reason)
}

func (g *IdempotencyGuard) Release(ctx context.Context, lock *deliveryLock) {
	if lock == nil || !lock.held {
		return
	}
	if err := g.redis.Del(g.lockKey(lock.receiptID)); err != nil {
		logger.Warn("Failed to release delivery lock", "receipt_id", lock.receiptID, "error", err)
		return
	}
	lock.held = false
}

func (g *IdempotencyGuard) IsDelivered(ctx context.Context, receiptID string) (bool, error) {
	exists, err := g.redis.Exist(g.deliveredKey(receiptID))
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (g *IdempotencyGuard) RetryCount(ctx context.Context, receiptID string) (int, error) {
	raw, err := g.redis.Get(g.retryKey(receiptID))
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	n, _ := strconv.Atoi(string(raw))
	return n, nil
}
