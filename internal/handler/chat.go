package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/httputil"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/service"
)

type HealthChecker interface {
	CheckHealth(ctx context.Context) (bool, error)
}

type ChatHandler struct {
	chatService *service.ChatService
	backend     HealthChecker
}

func NewChatHandler(chatService *service.ChatService, backend HealthChecker) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		backend:     backend,
	}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.SendMessage)
	r.Get("/health", h.Health)

	return r
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// POST /api/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	var req chatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.chatService.HandleTurn(r.Context(), user.ID, service.TurnInput{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"ok":               true,
		"sessionId":        result.SessionID,
		"reply":            result.Reply,
		"response":         result.Reply,
		"data":             result.Data,
		"suggested_places": result.SuggestedPlaces,
		"stage":            result.Stage,
	}
	if result.Type != "" {
		resp["type"] = result.Type
	}
	if result.ModuleUsed != "" {
		resp["module_used"] = result.ModuleUsed
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/chat/health
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy, err := h.backend.CheckHealth(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("ai backend health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":      false,
			"status":  "error",
			"message": "AI backend is unreachable",
		})
		return
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":     false,
			"status": "unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"status": "ok",
	})
}
