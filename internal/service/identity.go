package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/util"
)

const identityRequestTimeout = 10 * time.Second

// ErrProviderRejected means the auth provider answered and refused the
// request (bad credentials, expired token, malformed signup).
var ErrProviderRejected = errors.New("rejected by auth provider")

// ProviderError carries the provider's own message for a rejected request.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider returned %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProviderRejected }

// AuthResult is what sign-up, login and refresh hand back to the client.
// Session is null when the provider requires email confirmation first.
type AuthResult struct {
	User    json.RawMessage   `json:"user"`
	Session model.AuthSession `json:"session"`
}

// IdentityClient talks to the managed auth provider. Verified tokens are
// cached by hash so most authenticated requests skip the round trip.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	verify     singleflight.Group
}

func NewIdentityClient(baseURL, apiKey string, cacheTTL time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: identityRequestTimeout},
		cache:      cache.New(cacheTTL, 2*cacheTTL),
	}
}

// VerifyToken resolves a bearer token to its user. Concurrent misses for
// the same token share one provider call, which runs detached from any
// single caller so one cancelled request cannot fail the others.
func (c *IdentityClient) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	key := util.TokenKey(token)
	if c.revoked(key) {
		return nil, apperrors.InvalidToken("Invalid or expired token")
	}
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*model.User), nil
	}

	ch := c.verify.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), identityRequestTimeout)
		defer cancel()

		user, err := c.fetchUser(fetchCtx, token)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, user, cache.DefaultExpiration)
		// Logout may have landed while the provider call was out.
		if c.revoked(key) {
			c.cache.Delete(key)
			return nil, apperrors.InvalidToken("Invalid or expired token")
		}
		return user, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.External("auth provider", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.User), nil
	}
}

func revokedKey(key string) string {
	return "revoked:" + key
}

func (c *IdentityClient) revoked(key string) bool {
	_, ok := c.cache.Get(revokedKey(key))
	return ok
}

func (c *IdentityClient) fetchUser(ctx context.Context, token string) (*model.User, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		return nil, apperrors.External("auth provider", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, apperrors.InvalidToken("Invalid or expired token")
	}
	if status != http.StatusOK {
		return nil, apperrors.External("auth provider", fmt.Errorf("status %d", status))
	}

	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, apperrors.External("auth provider", fmt.Errorf("decode user: %w", err))
	}
	if user.ID == "" {
		return nil, apperrors.InvalidToken("Invalid or expired token")
	}
	return &user, nil
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthResult, error) {
	payload := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	return c.authenticate(ctx, "/auth/v1/signup", payload)
}

func (c *IdentityClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/v1/token?grant_type=password",
		map[string]any{"email": email, "password": password})
}

func (c *IdentityClient) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/v1/token?grant_type=refresh_token",
		map[string]any{"refresh_token": refreshToken})
}

// Logout revokes the token upstream. Locally the token is refused for one
// cache TTL, which outlives any verified entry a concurrent lookup could
// still write.
func (c *IdentityClient) Logout(ctx context.Context, token string) error {
	key := util.TokenKey(token)
	c.cache.Set(revokedKey(key), struct{}{}, cache.DefaultExpiration)
	c.cache.Delete(key)
	c.verify.Forget(key)

	status, body, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return &ProviderError{StatusCode: status, Message: providerMessage(body)}
	}
	return nil
}

func (c *IdentityClient) authenticate(ctx context.Context, path string, payload any) (*AuthResult, error) {
	status, body, err := c.do(ctx, http.MethodPost, path, "", payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 && status < 500 {
		return nil, &ProviderError{StatusCode: status, Message: providerMessage(body)}
	}
	if status >= 500 {
		return nil, fmt.Errorf("auth provider returned %d", status)
	}
	return parseAuthResult(body)
}

// parseAuthResult accepts both provider shapes: a token bundle with a
// nested user, or a bare user when the account still awaits confirmation.
func parseAuthResult(body []byte) (*AuthResult, error) {
	var probe struct {
		AccessToken string          `json:"access_token"`
		User        json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if probe.AccessToken == "" {
		return &AuthResult{User: body, Session: json.RawMessage("null")}, nil
	}
	user := probe.User
	if len(user) == 0 {
		user = json.RawMessage("null")
	}
	return &AuthResult{User: user, Session: body}, nil
}

func providerMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	return "request rejected"
}

func (c *IdentityClient) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("auth provider unreachable")
		return 0, nil, fmt.Errorf("call auth provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read auth provider response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("auth provider call")

	return resp.StatusCode, body, nil
}
