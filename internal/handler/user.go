package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/profile", h.Profile)
	r.Get("/history", h.History)
	r.Get("/recommendations", h.Recommendations)
	r.Get("/similar-users/places", h.SimilarUserPlaces)

	return r
}

// GET /api/user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("User not authenticated"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": h.userService.Profile(user),
	})
}

// GET /api/user/history
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.userService.History())
}

// GET /api/user/recommendations
func (h *UserHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.userService.Recommendations())
}

// GET /api/user/similar-users/places
func (h *UserHandler) SimilarUserPlaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.userService.SimilarUserPlaces())
}
