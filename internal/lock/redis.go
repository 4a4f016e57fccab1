package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/wanderai/api-server/internal/redis"
)

const (
	retryInterval  = 50 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the lock only while it still carries our token, so
// an expired lease never releases somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker holds a lease in Redis so turns serialize across replicas.
// The TTL must outlive the slowest turn, or a stalled holder can lose the
// lease while still running.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Acquire(ctx context.Context, sessionID, userID string) (func(), error) {
	k := redisclient.SessionLockKey(sessionID, userID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled here.
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{k}, token).Err(); err != nil {
				log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to release session lock")
			}
		})
	}, nil
}
