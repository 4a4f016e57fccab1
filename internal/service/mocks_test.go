package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/wanderai/api-server/internal/gateway"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/sse"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ExtractIntent(ctx context.Context, query string) (model.JSONMap, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.JSONMap), args.Error(1)
}

func (m *mockGateway) SuggestDestinations(ctx context.Context, query string, topK int) (*gateway.Suggestions, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Suggestions), args.Error(1)
}

func (m *mockGateway) BuildItinerary(ctx context.Context, query string, destinationIndex int) (model.JSONMap, error) {
	args := m.Called(ctx, query, destinationIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.JSONMap), args.Error(1)
}

func (m *mockGateway) Chat(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, gateway.ChatRequest) *gateway.ChatResponse); ok {
		return fn(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ChatResponse), args.Error(1)
}

func (m *mockGateway) CheckHealth(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher keeps every published event for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
	users  []string
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, event sse.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
