package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
)

type Session struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"-"`
	Stage           Stage          `db:"stage" json:"stage"`
	Title           string         `db:"title" json:"title"`
	Intent          JSONMap        `db:"intent" json:"intent"`
	Destination     JSONMap        `db:"destination" json:"destination"`
	Itinerary       JSONMap        `db:"itinerary" json:"itinerary"`
	History         History        `db:"history" json:"history"`
	SuggestedPlaces pq.StringArray `db:"suggested_places" json:"suggested_places"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy, so callers can mutate the result freely.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Intent = s.Intent.Clone()
	c.Destination = s.Destination.Clone()
	c.Itinerary = s.Itinerary.Clone()
	c.History = append(History{}, s.History...)
	c.SuggestedPlaces = append(pq.StringArray{}, s.SuggestedPlaces...)
	return &c
}

// Summary is the sidebar projection of a session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type SessionSummary struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SessionUpdate is a partial update. Nil fields are left untouched.
type SessionUpdate struct {
	Stage           *Stage
	Title           *string
	Intent          *JSONMap
	Destination     *JSONMap
	Itinerary       *JSONMap
	History         *History
	SuggestedPlaces *[]string

	// ExpectedUpdatedAt makes the update conditional on the stored
	// updated_at still matching the value the caller read.
	ExpectedUpdatedAt *time.Time
}

// Apply merges the update into s. It does not touch timestamps.
func (u SessionUpdate) Apply(s *Session) {
	if u.Stage != nil {
		s.Stage = *u.Stage
	}
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Intent != nil {
		s.Intent = u.Intent.Clone()
	}
	if u.Destination != nil {
		s.Destination = u.Destination.Clone()
	}
	if u.Itinerary != nil {
		s.Itinerary = u.Itinerary.Clone()
	}
	if u.History != nil {
		s.History = append(History{}, (*u.History)...)
	}
	if u.SuggestedPlaces != nil {
		s.SuggestedPlaces = append(pq.StringArray{}, (*u.SuggestedPlaces)...)
	}
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered message log of a session, stored as JSONB.
type History []Message

// Append returns a new history with msgs added at the end.
func (h History) Append(msgs ...Message) History {
	out := make(History, 0, len(h)+len(msgs))
	out = append(out, h...)
	return append(out, msgs...)
}

// Trim keeps only the most recent max messages.
func (h History) Trim(max int) History {
	if len(h) <= max {
		return append(History{}, h...)
	}
	return append(History{}, h[len(h)-max:]...)
}

func (h History) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

func (h *History) Scan(src any) error {
	data, err := scanBytes(src)
	if err != nil {
		return fmt.Errorf("scan history: %w", err)
	}
	if data == nil {
		*h = History{}
		return nil
	}
	var out History
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan history: %w", err)
	}
	if out == nil {
		out = History{}
	}
	*h = out
	return nil
}

// MergeSuggestedPlaces appends names not yet present, preserving first-seen
// order, then drops the oldest entries until at most max remain.
func MergeSuggestedPlaces(existing []string, names []string, max int) []string {
	seen := make(map[string]struct{}, len(existing)+len(names))
	out := make([]string, 0, len(existing)+len(names))
	for _, name := range existing {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// DeriveTitle builds a session title from the first user message.
func DeriveTitle(message string, maxRunes int) string {
	title := strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(title) <= maxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// JSONMap holds an opaque JSON object produced by the AI backend.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	data, err := scanBytes(src)
	if err != nil {
		return fmt.Errorf("scan json object: %w", err)
	}
	if data == nil || string(data) == "null" {
		*m = nil
		return nil
	}
	var out JSONMap
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan json object: %w", err)
	}
	*m = out
	return nil
}

// Clone deep-copies the map through a JSON round trip.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var out JSONMap
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// String returns the value at key when it is a non-empty string.
func (m JSONMap) String(key string) (string, bool) {
	v, ok := m[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Number returns the value at key as a float64. JSON numbers and numeric
// strings are accepted.
func (m JSONMap) Number(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil && !math.IsNaN(f) {
			return f, true
		}
	}
	return 0, false
}

// Map returns the nested object at key.
func (m JSONMap) Map(key string) (JSONMap, bool) {
	switch v := m[key].(type) {
	case map[string]any:
		return JSONMap(v), true
	case JSONMap:
		return v, true
	}
	return nil, false
}

func scanBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}
