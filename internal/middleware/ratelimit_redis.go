package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript keeps one sorted-set member per admitted hit, scored by
// second. Members come from the caller because older Redis reseeds the Lua
// PRNG on every call, so random members collide within one second.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// RedisRateLimiter shares the window across replicas. When Redis cannot
// answer it degrades to a per-process window instead of letting every
// request through.
type RedisRateLimiter struct {
	client   *redis.Client
	fallback *RateLimiter
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, fallback: NewRateLimiter()}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := time.Now().Unix()

	result, err := rateLimitScript.Run(ctx, rl.client, []string{key}, now, int64(windowDuration.Seconds()), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit check failed, using local window")
		return rl.fallback.Check(ctx, key, limit)
	}

	if len(result) != 3 {
		log.Warn().Str("key", key).Msg("unexpected redis rate limit result, using local window")
		return rl.fallback.Check(ctx, key, limit)
	}

	return result[0] == 1, int(result[1]), result[2]
}
