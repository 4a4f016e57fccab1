package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
)

// IdentityProvider is the part of the managed auth provider this service
// relies on.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (*model.User, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type SignUpInput struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService is a thin proxy in front of the auth provider. It validates
// input and maps provider answers onto AppErrors; credentials and tokens
// are never stored here.
type AuthService struct {
	provider IdentityProvider
}

func NewAuthService(provider IdentityProvider) *AuthService {
	return &AuthService{provider: provider}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.ValidationError("email and password are required")
	}

	result, err := s.provider.SignUp(ctx, email, in.Password, in.Metadata)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return nil, apperrors.ValidationError(perr.Message)
		}
		return nil, apperrors.External("auth provider", err)
	}
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.ValidationError("email and password are required")
	}

	result, err := s.provider.Login(ctx, email, in.Password)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return nil, apperrors.Unauthorized(perr.Message)
		}
		return nil, apperrors.External("auth provider", err)
	}
	return result, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.MissingRequired("refresh_token")
	}

	result, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return nil, apperrors.Unauthorized(perr.Message)
		}
		return nil, apperrors.External("auth provider", err)
	}
	return result, nil
}

// Logout revokes the caller's token. A token the provider already considers
// invalid counts as logged out.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Unauthorized("No authorization token provided")
	}
	err := s.provider.Logout(ctx, token)
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		log.Debug().Int("status", perr.StatusCode).Msg("logout of an already invalid token")
		return nil
	}
	return apperrors.External("auth provider", err)
}

// CurrentUser verifies token and returns the user it belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("No authorization token provided")
	}
	return s.provider.VerifyToken(ctx, token)
}
