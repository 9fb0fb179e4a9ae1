package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

const orderLockPrefix = "ledger:order:lock:"

// releaseScript deletes the lock only when it still holds our token, so a
// lock that expired and was taken by another worker is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOrderLocker serializes refund processing per order across instances
// using SET NX with a TTL. The TTL bounds how long a crashed worker can keep
// an order locked.
type RedisOrderLocker struct {
	client         *redis.Client
	ttl            time.Duration
	retryInterval  time.Duration
	acquireTimeout time.Duration
}

// NewRedisOrderLocker creates a locker backed by an existing Redis client
func NewRedisOrderLocker(client *redis.Client, ttl, retryInterval, acquireTimeout time.Duration) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &RedisOrderLocker{
		client:         client,
		ttl:            ttl,
		retryInterval:  retryInterval,
		acquireTimeout: acquireTimeout,
	}
}

// WithLock runs fn while holding an exclusive lock on the order. Contenders
// poll until the lock frees or the acquire timeout elapses.
func (l *RedisOrderLocker) WithLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error {
	key := orderLockPrefix + orderID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(l.acquireTimeout)

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire order lock: %w", err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return shared.NewDomainError("ORDER_LOCK_TIMEOUT", "Order is locked by another refund in progress")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}()

	return fn(ctx)
}
