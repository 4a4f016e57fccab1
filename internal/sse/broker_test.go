package sse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localBroker never touches Redis: the relay for every listed user is
// marked as already running.
func localBroker(users ...string) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broker{
		clients: make(map[string]map[*Client]bool),
		relays:  make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, u := range users {
		b.relays[u] = true
	}
	return b
}

func TestBroker_Broadcast(t *testing.T) {
	b := localBroker("u1", "u2")
	defer b.Close()

	c1 := b.Subscribe("u1")
	c2 := b.Subscribe("u1")
	other := b.Subscribe("u2")

	b.broadcast("u1", Event{Type: EventSessionUpdated, Data: MustData(map[string]string{"sessionId": "s1"})})

	for _, c := range []*Client{c1, c2} {
		select {
		case e := <-c.Events:
			assert.Equal(t, EventSessionUpdated, e.Type)
			assert.JSONEq(t, `{"sessionId":"s1"}`, string(e.Data))
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	select {
	case <-other.Events:
		t.Fatal("event leaked to another user")
	default:
	}
}

func TestBroker_DropsWhenBufferFull(t *testing.T) {
	b := localBroker("u1")
	defer b.Close()

	c := b.Subscribe("u1")
	for i := 0; i < clientBufferSize+5; i++ {
		b.broadcast("u1", Event{Type: EventSessionUpdated})
	}
	assert.Len(t, c.Events, clientBufferSize)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := localBroker("u1")
	defer b.Close()

	c1 := b.Subscribe("u1")
	c2 := b.Subscribe("u1")
	assert.Equal(t, 2, b.ClientCount("u1"))
	assert.Equal(t, 2, b.TotalClients())

	b.Unsubscribe(c1)
	b.Unsubscribe(c1)
	assert.Equal(t, 1, b.ClientCount("u1"))

	select {
	case <-c1.Done:
	default:
		t.Fatal("done channel not closed")
	}

	assert.False(t, b.release("u1"))
	b.Unsubscribe(c2)
	assert.True(t, b.release("u1"))
	assert.Equal(t, 0, b.TotalClients())
}

func TestBroker_CloseEndsClients(t *testing.T) {
	b := localBroker("u1")
	c := b.Subscribe("u1")

	b.Close()

	select {
	case <-c.Done:
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	assert.Equal(t, 0, b.TotalClients())
}

func TestBroker_RedisRoundTrip(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis broker test")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	b := NewBroker(client)
	defer b.Close()

	user := uuid.NewString()
	c := b.Subscribe(user)

	// The relay subscribes asynchronously; publish until it is listening.
	deadline := time.After(3 * time.Second)
	for {
		require.NoError(t, b.Publish(context.Background(), user, Event{Type: EventSessionDeleted, Data: MustData(map[string]string{"sessionId": "s1"})}))
		select {
		case e := <-c.Events:
			assert.Equal(t, EventSessionDeleted, e.Type)
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("event not relayed through redis")
		}
	}
}
