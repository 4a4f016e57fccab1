package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/audit"
	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// WithUser stores user in ctx the way the auth middleware does.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("No authorization token provided"))
			return
		}

		user, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			switch apperrors.GetCode(err) {
			case apperrors.ErrCodeInvalidToken, apperrors.ErrCodeUnauthorized:
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventAuthFailure,
					Details: map[string]any{"path": r.URL.Path},
				})
			default:
				log.Error().Err(err).Msg("auth middleware: token verification failed")
			}
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// ExtractToken reads the bearer token. EventSource cannot set headers, so
// a token query parameter is accepted as well.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return r.URL.Query().Get("token")
}
