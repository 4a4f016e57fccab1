package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/httputil"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListSessions)
	r.Get("/{id}", h.GetSession)
	r.Put("/{id}/title", h.RenameSession)
	r.Delete("/{id}", h.DeleteSession)

	return r
}

// GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	sessions, err := h.sessionService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"sessions": sessions,
	})
}

// GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	session, err := h.sessionService.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"session": session,
	})
}

type renameRequest struct {
	Title string `json:"title"`
}

// PUT /api/sessions/{id}/title
func (h *SessionHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	var req renameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.sessionService.Rename(r.Context(), chi.URLParam(r, "id"), user.ID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"session": summary,
	})
}

// DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.sessionService.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Session deleted successfully",
	})
}
