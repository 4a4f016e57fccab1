package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLocalLocker(t *testing.T) {
	defer goleak.VerifyNone(t)

	testLockerContract(t, func(wait time.Duration) Locker {
		return NewLocalLocker(wait)
	})

	t.Run("forgets keys once released", func(t *testing.T) {
		l := NewLocalLocker(time.Second)
		release, err := l.Acquire(context.Background(), "s1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, l.size())

		release()
		release()
		assert.Equal(t, 0, l.size())
	})
}

func TestRedisLocker(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis locker test")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	testLockerContract(t, func(wait time.Duration) Locker {
		return NewRedisLocker(client, 5*time.Second, wait)
	})

	t.Run("expired lease is not released by the old holder", func(t *testing.T) {
		ctx := context.Background()
		session := uuid.NewString()
		short := NewRedisLocker(client, 100*time.Millisecond, time.Second)

		stale, err := short.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		time.Sleep(200 * time.Millisecond)

		fresh, err := short.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		defer fresh()

		stale()

		_, err = NewRedisLocker(client, time.Second, 150*time.Millisecond).Acquire(ctx, session, "u1")
		assert.ErrorIs(t, err, ErrLockTimeout)
	})
}

func testLockerContract(t *testing.T, newLocker func(wait time.Duration) Locker) {
	t.Run("serializes holders of the same session", func(t *testing.T) {
		l := newLocker(5 * time.Second)
		session := uuid.NewString()

		var (
			inside  int32
			maxSeen int32
			wg      sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := l.Acquire(context.Background(), session, "u1")
				if !assert.NoError(t, err) {
					return
				}
				defer release()

				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxSeen)
	})

	t.Run("different sessions do not block each other", func(t *testing.T) {
		l := newLocker(100 * time.Millisecond)
		ctx := context.Background()

		r1, err := l.Acquire(ctx, uuid.NewString(), "u1")
		require.NoError(t, err)
		defer r1()

		r2, err := l.Acquire(ctx, uuid.NewString(), "u1")
		require.NoError(t, err)
		defer r2()
	})

	t.Run("same session id for another user is a different lock", func(t *testing.T) {
		l := newLocker(100 * time.Millisecond)
		ctx := context.Background()
		session := uuid.NewString()

		r1, err := l.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		defer r1()

		r2, err := l.Acquire(ctx, session, "u2")
		require.NoError(t, err)
		defer r2()
	})

	t.Run("times out while held", func(t *testing.T) {
		l := newLocker(100 * time.Millisecond)
		ctx := context.Background()
		session := uuid.NewString()

		release, err := l.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		defer release()

		_, err = l.Acquire(ctx, session, "u1")
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		l := newLocker(5 * time.Second)
		session := uuid.NewString()

		release, err := l.Acquire(context.Background(), session, "u1")
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = l.Acquire(ctx, session, "u1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("can be reacquired after release", func(t *testing.T) {
		l := newLocker(100 * time.Millisecond)
		ctx := context.Background()
		session := uuid.NewString()

		release, err := l.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		release()

		release, err = l.Acquire(ctx, session, "u1")
		require.NoError(t, err)
		release()
	})
}
