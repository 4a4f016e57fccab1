package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wanderai/api-server/internal/audit"
	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/httputil"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	return r
}

// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventSignup,
		Details: map[string]any{"email": req.Email},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":      true,
		"user":    result.User,
		"session": result.Session,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeUnauthorized {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Details: map[string]any{"email": req.Email},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		Details: map[string]any{"email": req.Email},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user":    result.User,
		"session": result.Session,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user":    result.User,
		"session": result.Session,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.ExtractToken(r)); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Logged out successfully",
	})
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), middleware.ExtractToken(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": user,
	})
}
