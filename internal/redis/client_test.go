package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:session:u1:s1", SessionLockKey("s1", "u1"))
	assert.Equal(t, "events:user:u1", UserEventChannel("u1"))
	assert.Equal(t, "ratelimit:chat:u1", RateLimitKey("chat", "u1"))
}

func TestSessionLockKey_ScopedByUser(t *testing.T) {
	assert.NotEqual(t, SessionLockKey("s1", "u1"), SessionLockKey("s1", "u2"))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	client, err := NewClient(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "parse redis url")
}
