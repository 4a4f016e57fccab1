package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/audit"
	"github.com/wanderai/api-server/internal/config"
	apperrors "github.com/wanderai/api-server/internal/errors"
	redisclient "github.com/wanderai/api-server/internal/redis"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
	entryTTL        = 5 * time.Minute
	windowDuration  = config.RateLimitWindow
)

// Limiter admits at most limit hits per key within the sliding window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64)
}

type rateLimitEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// RateLimiter is the in-process sliding window. It serves single-instance
// deployments and backs the Redis limiter when Redis is unavailable.
type RateLimiter struct {
	mu          sync.Mutex
	store       map[string]*rateLimitEntry
	lastCleanup time.Time
	now         func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		store:       make(map[string]*rateLimitEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval {
		return
	}
	rl.lastCleanup = now

	for key, entry := range rl.store {
		if now.Sub(entry.lastAccess) > entryTTL {
			delete(rl.store, key)
		}
	}

	if len(rl.store) > maxEntries {
		oldest := make([]string, 0, len(rl.store)/5)
		for key := range rl.store {
			oldest = append(oldest, key)
			if len(oldest) >= len(rl.store)/5 {
				break
			}
		}
		for _, key := range oldest {
			delete(rl.store, key)
		}
	}
}

func (rl *RateLimiter) Check(_ context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	windowStart := now.Add(-windowDuration)

	entry, exists := rl.store[key]
	if !exists {
		entry = &rateLimitEntry{timestamps: make([]time.Time, 0)}
		rl.store[key] = entry
	}
	entry.lastAccess = now

	filtered := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	entry.timestamps = filtered

	remaining = limit - len(entry.timestamps)
	if remaining < 0 {
		remaining = 0
	}

	if len(entry.timestamps) > 0 {
		resetAt = entry.timestamps[0].Add(windowDuration).Unix()
	} else {
		resetAt = now.Add(windowDuration).Unix()
	}

	if len(entry.timestamps) >= limit {
		return false, 0, resetAt
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, remaining - 1, resetAt
}

// RateLimitMiddleware applies one limit per subject. Requests whose subject
// cannot be determined pass through.
type RateLimitMiddleware struct {
	limiter Limiter
	limit   int
	scope   string
	subject func(r *http.Request) string
}

// NewUserRateLimitMiddleware limits authenticated requests per user. It
// must run after the auth middleware.
func NewUserRateLimitMiddleware(limiter Limiter, limit int, scope string) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		scope:   scope,
		subject: func(r *http.Request) string {
			if user := GetUser(r.Context()); user != nil {
				return user.ID
			}
			return ""
		},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := m.subject(r)
		if subject == "" || m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt := m.limiter.Check(r.Context(), redisclient.RateLimitKey(m.scope, subject), m.limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

		if !allowed {
			log.Warn().Str("scope", m.scope).Str("subject", subject).Msg("rate limit exceeded")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]any{"scope": m.scope, "subject": subject},
			})

			retryAfter := resetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
