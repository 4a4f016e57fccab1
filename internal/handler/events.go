package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/sse"
)

type SessionLister interface {
	List(ctx context.Context, userID string) ([]model.SessionSummary, error)
}

type EventsHandler struct {
	broker   *sse.Broker
	sessions SessionLister
}

func NewEventsHandler(broker *sse.Broker, sessions SessionLister) *EventsHandler {
	return &EventsHandler{broker: broker, sessions: sessions}
}

// ServeHTTP streams the caller's session events until the client goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(user.ID)
	defer h.broker.Unsubscribe(client)

	log.Info().Str("userId", user.ID).Msg("sse connection established")

	ctx := r.Context()

	if err := h.sendEvent(w, flusher, sse.EventConnected, map[string]any{
		"userId": user.ID,
	}); err != nil {
		return
	}

	// Events published while the client was away are not replayed, so a
	// reconnecting client resyncs its sidebar from this snapshot.
	if err := h.sendSnapshot(ctx, w, flusher, user.ID); err != nil {
		log.Warn().Err(err).Str("userId", user.ID).Msg("failed to send session snapshot")
	}

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("userId", user.ID).Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Str("userId", user.ID).Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Str("userId", user.ID).Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendSnapshot(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, userID string) error {
	sessions, err := h.sessions.List(ctx, userID)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []model.SessionSummary{}
	}
	return h.sendEvent(w, flusher, sse.EventSessionsSnapshot, map[string]any{
		"sessions": sessions,
	})
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
