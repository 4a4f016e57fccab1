package service

import (
	"context"
	"fmt"

	"github.com/wanderai/api-server/internal/config"
	"github.com/wanderai/api-server/internal/gateway"
	"github.com/wanderai/api-server/internal/model"
)

// ProxyDialogue relays every message, with the stored history and the
// places already suggested, to the backend's chat endpoint. All dialogue
// management happens upstream; this side only keeps the bounded history
// and the place list.
type ProxyDialogue struct {
	gateway AIGateway
}

func NewProxyDialogue(gw AIGateway) *ProxyDialogue {
	return &ProxyDialogue{gateway: gw}
}

func (d *ProxyDialogue) Respond(ctx context.Context, session *model.Session, message string) (*Turn, error) {
	resp, err := d.gateway.Chat(ctx, gateway.ChatRequest{
		Message:         message,
		History:         session.History,
		SuggestedPlaces: session.SuggestedPlaces,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	reply := resp.Text()
	history := session.History.Append(
		model.Message{Role: model.RoleUser, Content: message},
		model.Message{Role: model.RoleAssistant, Content: reply},
	).Trim(config.MaxHistory)
	places := model.MergeSuggestedPlaces(session.SuggestedPlaces, resp.PlaceNames(), config.MaxSuggestedPlaces)

	data := resp.Data
	if data == nil {
		data = model.JSONMap{}
	}

	return &Turn{
		Update: model.SessionUpdate{
			History:         &history,
			SuggestedPlaces: &places,
		},
		Reply:      reply,
		Type:       resp.Type,
		Data:       data,
		ModuleUsed: resp.ModuleUsed,
	}, nil
}
