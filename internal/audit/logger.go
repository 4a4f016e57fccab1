package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSignup          EventType = "signup"
	EventLoginSuccess    EventType = "login_success"
	EventLoginFailure    EventType = "login_failure"
	EventLogout          EventType = "logout"
	EventAuthFailure     EventType = "auth_failure"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventSessionRename   EventType = "session_rename"
	EventSessionDelete   EventType = "session_delete"
	EventOwnershipDenied EventType = "session_ownership_denied"
)

type Event struct {
	Type      EventType
	UserID    string
	SessionID string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Log writes event on the global logger, tagged so audit lines can be
// filtered out of the regular request log.
func Log(_ context.Context, event Event) {
	ctx := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now())

	if event.UserID != "" {
		ctx = ctx.Str("user_id", event.UserID)
	}
	if event.SessionID != "" {
		ctx = ctx.Str("session_id", event.SessionID)
	}
	if event.IP != "" {
		ctx = ctx.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		ctx = ctx.Str("user_agent", event.UserAgent)
	}
	logger := ctx.Logger()

	e := logger.Info()
	for k, v := range event.Details {
		e = addField(e, k, v)
	}
	e.Msg("audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	case time.Duration:
		return e.Dur(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills in the caller's address and user agent. RemoteAddr
// is expected to be rewritten by chi's RealIP middleware already.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}
