package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/wanderai/api-server/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 32
)

const (
	EventConnected        = "connected"
	EventSessionsSnapshot = "sessions_snapshot"
	EventSessionUpdated   = "session_updated"
	EventSessionRenamed   = "session_renamed"
	EventSessionDeleted   = "session_deleted"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MustData marshals v for an Event payload. It panics only on values that
// cannot be encoded as JSON.
func MustData(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

type Client struct {
	UserID string
	Events chan Event
	Done   chan struct{}
}

// Broker delivers per-user session events to every open stream of that user,
// on any replica. Publishing goes through Redis; each replica holds one
// subscription per user with at least one local stream.
type Broker struct {
	redis   *redis.Client
	clients map[string]map[*Client]bool // userID -> set of clients
	relays  map[string]bool             // users with a running Redis relay
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redis.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		relays:  make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(userID string) *Client {
	client := &Client{
		UserID: userID,
		Events: make(chan Event, clientBufferSize),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[userID] == nil {
		b.clients[userID] = make(map[*Client]bool)
	}
	if !b.relays[userID] {
		b.relays[userID] = true
		go b.subscribeToRedis(userID)
	}
	b.clients[userID][client] = true
	clientCount := len(b.clients[userID])
	b.mu.Unlock()

	log.Info().
		Str("userId", userID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Done)

	if len(clients) == 0 {
		delete(b.clients, client.UserID)
	}

	log.Info().
		Str("userId", client.UserID).
		Int("clientCount", len(clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, userID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.UserEventChannel(userID), data).Err()
}

// subscribeToRedis relays the user's channel until the last local client
// leaves or the broker closes.
func (b *Broker) subscribeToRedis(userID string) {
	channel := redisclient.UserEventChannel(userID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("userId", userID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()
	idle := time.NewTicker(HeartbeatInterval)
	defer idle.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-idle.C:
			if b.release(userID) {
				log.Debug().Str("userId", userID).Msg("redis pubsub released")
				return
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(userID, event)
		}
	}
}

// release retires the user's relay once no local client is left. A later
// Subscribe starts a fresh one.
func (b *Broker) release(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.clients[userID]) > 0 {
		return false
	}
	delete(b.relays, userID)
	return true
}

func (b *Broker) broadcast(userID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients[userID] {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("userId", userID).
				Str("event", event.Type).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.relays = make(map[string]bool)
}

func (b *Broker) ClientCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[userID])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
