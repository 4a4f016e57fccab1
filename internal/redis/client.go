package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionLockKey guards one chat turn on a session.
func SessionLockKey(sessionID, userID string) string {
	return fmt.Sprintf("lock:session:%s:%s", userID, sessionID)
}

// UserEventChannel carries session events for one user's open SSE streams.
func UserEventChannel(userID string) string {
	return fmt.Sprintf("events:user:%s", userID)
}

func RateLimitKey(scope, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, subject)
}

// HealthStatusKey holds the latest AI backend probe result.
const HealthStatusKey = "health:wanderai"
