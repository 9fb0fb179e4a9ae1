package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

func newTestLocker(t *testing.T, ttl, retry, timeout time.Duration) (*RedisOrderLocker, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisOrderLocker(client, ttl, retry, timeout), srv
}

func TestRedisOrderLocker_WithLock(t *testing.T) {
	t.Run("runs the callback while holding the lock", func(t *testing.T) {
		locker, srv := newTestLocker(t, time.Minute, 10*time.Millisecond, time.Second)
		orderID := uuid.New()

		ran := false
		err := locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
			ran = true
			assert.True(t, srv.Exists(orderLockPrefix+orderID.String()))
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("releases the lock after the callback", func(t *testing.T) {
		locker, srv := newTestLocker(t, time.Minute, 10*time.Millisecond, time.Second)
		orderID := uuid.New()

		require.NoError(t, locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
			return nil
		}))
		assert.False(t, srv.Exists(orderLockPrefix+orderID.String()))
	})

	t.Run("releases the lock when the callback fails", func(t *testing.T) {
		locker, srv := newTestLocker(t, time.Minute, 10*time.Millisecond, time.Second)
		orderID := uuid.New()

		err := locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
			return shared.ErrInvalidState
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.False(t, srv.Exists(orderLockPrefix+orderID.String()))
	})

	t.Run("times out when the order stays locked", func(t *testing.T) {
		locker, srv := newTestLocker(t, time.Minute, 5*time.Millisecond, 30*time.Millisecond)
		orderID := uuid.New()
		require.NoError(t, srv.Set(orderLockPrefix+orderID.String(), "someone-else"))

		err := locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
			t.Fatal("callback must not run without the lock")
			return nil
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_LOCK_TIMEOUT", domainErr.Code)
	})

	t.Run("does not release a lock taken over after expiry", func(t *testing.T) {
		locker, srv := newTestLocker(t, time.Minute, 5*time.Millisecond, time.Second)
		orderID := uuid.New()
		key := orderLockPrefix + orderID.String()

		err := locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
			// Simulate TTL expiry plus another worker grabbing the lock
			srv.Del(key)
			require.NoError(t, srv.Set(key, "other-worker-token"))
			return nil
		})
		require.NoError(t, err)

		val, getErr := srv.Get(key)
		require.NoError(t, getErr)
		assert.Equal(t, "other-worker-token", val)
	})

	t.Run("serializes two contenders on the same order", func(t *testing.T) {
		locker, _ := newTestLocker(t, time.Minute, 2*time.Millisecond, 2*time.Second)
		orderID := uuid.New()

		var mu sync.Mutex
		var active, maxActive int

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := locker.WithLock(context.Background(), orderID, func(ctx context.Context) error {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					time.Sleep(5 * time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxActive)
	})
}
