// Package gateway is the HTTP client for the WanderAI backend, which owns
// intent extraction, destination ranking, itinerary building and free-form
// chat. Every operation is one request with no retry.
package gateway

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

	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/model"
)

const (
	pathIntent      = "/intent/extract"
	pathSuggest     = "/destinations/suggest"
	pathItinerary   = "/itinerary/build"
	pathChat        = "/api/chat"
	pathHealth      = "/health"
	maxErrorBodyLen = 512
)

// ErrNoDestinations means the backend answered but ranked nothing.
var ErrNoDestinations = errors.New("no destinations suggested")

// Error is any failed call: transport failure, non-2xx status or an
// undecodable body. StatusCode is zero when no response arrived.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("wanderai %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("wanderai %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type Suggestions struct {
	Destinations []model.JSONMap `json:"destinations"`
}

type ChatRequest struct {
	Message         string          `json:"message"`
	History         []model.Message `json:"history"`
	SuggestedPlaces []string        `json:"suggested_places"`
}

type ChatResponse struct {
	Reply              string        `json:"reply"`
	Response           string        `json:"response,omitempty"`
	Type               string        `json:"type"`
	Data               model.JSONMap `json:"data"`
	SuggestedPlaceName *string       `json:"suggested_place_name,omitempty"`
	RefinedQuery       *string       `json:"refined_query,omitempty"`
	ModuleUsed         string        `json:"module_used,omitempty"`
}

// Text is the assistant's reply. Older backends answer in "response".
func (r *ChatResponse) Text() string {
	if r.Reply != "" {
		return r.Reply
	}
	return r.Response
}

// PlaceNames lists destination names mentioned by the reply, in order.
// data.destinations may be a list of objects with a name, a list of
// strings, or a single such value.
func (r *ChatResponse) PlaceNames() []string {
	var names []string
	if r.Data != nil {
		switch v := r.Data["destinations"].(type) {
		case []any:
			for _, item := range v {
				names = appendPlaceName(names, item)
			}
		default:
			names = appendPlaceName(names, v)
		}
	}
	if r.SuggestedPlaceName != nil {
		names = appendPlaceName(names, *r.SuggestedPlaceName)
	}
	return names
}

func appendPlaceName(names []string, v any) []string {
	switch item := v.(type) {
	case string:
		if s := strings.TrimSpace(item); s != "" {
			return append(names, s)
		}
	case map[string]any:
		if s, ok := item["name"].(string); ok && strings.TrimSpace(s) != "" {
			return append(names, strings.TrimSpace(s))
		}
	}
	return names
}

func (c *Client) ExtractIntent(ctx context.Context, query string) (model.JSONMap, error) {
	var intent model.JSONMap
	err := c.post(ctx, "extract_intent", pathIntent, map[string]any{
		"query": query,
	}, &intent)
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (c *Client) SuggestDestinations(ctx context.Context, query string, topK int) (*Suggestions, error) {
	var out Suggestions
	err := c.post(ctx, "suggest_destinations", pathSuggest, map[string]any{
		"query": query,
		"top_k": topK,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Destinations) == 0 {
		return nil, ErrNoDestinations
	}
	return &out, nil
}

func (c *Client) BuildItinerary(ctx context.Context, query string, destinationIndex int) (model.JSONMap, error) {
	var itinerary model.JSONMap
	err := c.post(ctx, "build_itinerary", pathItinerary, map[string]any{
		"query":             query,
		"destination_index": destinationIndex,
	}, &itinerary)
	if err != nil {
		return nil, err
	}
	return itinerary, nil
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.History == nil {
		req.History = []model.Message{}
	}
	if req.SuggestedPlaces == nil {
		req.SuggestedPlaces = []string{}
	}

	var out ChatResponse
	if err := c.post(ctx, "chat", pathChat, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckHealth reports whether the backend says "ok". A reachable backend
// reporting any other status is unhealthy but not an error.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "health", http.MethodGet, pathHealth, nil, &out); err != nil {
		return false, err
	}
	return out.Status == "ok", nil
}

func (c *Client) post(ctx context.Context, op, path string, payload, dst any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}
	return c.do(ctx, op, http.MethodPost, path, body, dst)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, dst any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("op", op).
			Str("path", path).
			Dur("elapsed", elapsed).
			Msg("wanderai request error")
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		log.Error().
			Str("op", op).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("wanderai request failed")
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		log.Error().
			Err(err).
			Str("op", op).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("wanderai response undecodable")
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	log.Debug().
		Str("op", op).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("wanderai request completed")

	return nil
}
