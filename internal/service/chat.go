package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/audit"
	"github.com/wanderai/api-server/internal/config"
	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/gateway"
	"github.com/wanderai/api-server/internal/lock"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/repository"
	"github.com/wanderai/api-server/internal/sse"
	"github.com/wanderai/api-server/internal/util"
)

// AIGateway is the subset of the WanderAI backend the chat engine uses.
type AIGateway interface {
	ExtractIntent(ctx context.Context, query string) (model.JSONMap, error)
	SuggestDestinations(ctx context.Context, query string, topK int) (*gateway.Suggestions, error)
	BuildItinerary(ctx context.Context, query string, destinationIndex int) (model.JSONMap, error)
	Chat(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error)
	CheckHealth(ctx context.Context) (bool, error)
}

// EventPublisher fans session events out to a user's open event streams.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event sse.Event) error
}

// Dialogue decides the reply to one message and the session changes that go
// with it. It must not write to the store: the caller commits Update in a
// single write once the whole turn has succeeded.
type Dialogue interface {
	Respond(ctx context.Context, session *model.Session, message string) (*Turn, error)
}

type Turn struct {
	Update     model.SessionUpdate
	Reply      string
	Type       string
	Data       model.JSONMap
	ModuleUsed string
}

type TurnInput struct {
	Message   string
	SessionID string
}

type TurnResult struct {
	SessionID       string
	Reply           string
	Type            string
	Data            model.JSONMap
	ModuleUsed      string
	SuggestedPlaces []string
	Stage           model.Stage
}

type ChatService struct {
	sessions repository.SessionRepository
	locker   lock.Locker
	dialogue Dialogue
	events   EventPublisher
}

func NewChatService(
	sessions repository.SessionRepository,
	locker lock.Locker,
	dialogue Dialogue,
	events EventPublisher,
) *ChatService {
	return &ChatService{
		sessions: sessions,
		locker:   locker,
		dialogue: dialogue,
		events:   events,
	}
}

// HandleTurn processes one user message. Validation failures, a busy session
// and a session owned by someone else come back as their own AppError; every
// later failure is reported as a chat error and leaves the stored session
// exactly as it was.
func (s *ChatService) HandleTurn(ctx context.Context, userID string, in TurnInput) (*TurnResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperrors.MissingRequired("message")
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if !util.IsValidSessionID(sessionID) {
		return nil, apperrors.InvalidInput("sessionId", "must be a UUID or up to 64 letters, digits, '-' or '_'")
	}

	logger := log.With().Str("sessionId", sessionID).Str("userId", userID).Logger()

	release, err := s.locker.Acquire(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			logger.Warn().Msg("session busy")
			return nil, apperrors.SessionBusy()
		}
		logger.Error().Err(err).Msg("failed to lock session")
		return nil, apperrors.Chat(err)
	}
	defer release()

	session, err := s.sessions.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			audit.Log(ctx, audit.Event{Type: audit.EventOwnershipDenied, UserID: userID, SessionID: sessionID,
				Details: map[string]any{"operation": "chat"}})
			return nil, apperrors.NotFound("Session")
		}
		logger.Error().Err(err).Msg("failed to load session")
		return nil, apperrors.Chat(err)
	}

	turn, err := s.dialogue.Respond(ctx, session, message)
	if err != nil {
		logger.Error().Err(err).Str("stage", string(session.Stage)).Msg("chat turn failed")
		return nil, apperrors.Chat(err)
	}

	update := turn.Update
	if session.Title == "" {
		title := model.DeriveTitle(message, config.MaxTitleRunes)
		update.Title = &title
	}
	expected := session.UpdatedAt
	update.ExpectedUpdatedAt = &expected

	if err := s.sessions.Update(ctx, sessionID, userID, update); err != nil {
		if errors.Is(err, repository.ErrSessionConflict) {
			logger.Warn().Msg("session changed during chat turn")
			return nil, apperrors.Conflict("Session was updated by another request, please resend your message").WithCause(err)
		}
		logger.Error().Err(err).Msg("failed to persist chat turn")
		return nil, apperrors.Chat(err)
	}
	update.Apply(session)

	logger.Info().
		Str("stage", string(session.Stage)).
		Int("historyLen", len(session.History)).
		Msg("chat turn completed")

	s.publish(ctx, userID, sse.Event{
		Type: sse.EventSessionUpdated,
		Data: sse.MustData(map[string]any{
			"sessionId": session.ID,
			"title":     session.Title,
			"stage":     session.Stage,
		}),
	})

	return &TurnResult{
		SessionID:       session.ID,
		Reply:           turn.Reply,
		Type:            turn.Type,
		Data:            turn.Data,
		ModuleUsed:      turn.ModuleUsed,
		SuggestedPlaces: []string(session.SuggestedPlaces),
		Stage:           session.Stage,
	}, nil
}

// publish is best effort: the turn is already committed.
func (s *ChatService) publish(ctx context.Context, userID string, event sse.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("userId", userID).Str("event", event.Type).Msg("failed to publish session event")
	}
}
