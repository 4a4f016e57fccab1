package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/audit"
	"github.com/wanderai/api-server/internal/config"
	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/repository"
	"github.com/wanderai/api-server/internal/sse"
)

// SessionService backs the chat sidebar: list, reopen, rename, delete.
// Every operation is scoped to the calling user.
type SessionService struct {
	sessionRepo repository.SessionRepository
	events      EventPublisher
}

func NewSessionService(sessionRepo repository.SessionRepository, events EventPublisher) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		events:      events,
	}
}

func (s *SessionService) List(ctx context.Context, userID string) ([]model.SessionSummary, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list sessions: %w", err))
	}
	return sessions, nil
}

func (s *SessionService) Get(ctx context.Context, id, userID string) (*model.Session, error) {
	session, err := s.sessionRepo.Get(ctx, id, userID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("get session: %w", err))
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

// Rename sets a user-chosen title. Sessions the user does not own are
// reported as not found.
func (s *SessionService) Rename(ctx context.Context, id, userID, title string) (*model.SessionSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.MissingRequired("title")
	}
	if utf8.RuneCountInString(title) > config.MaxEditedTitleRunes {
		return nil, apperrors.InvalidInput("title", fmt.Sprintf("must be at most %d characters", config.MaxEditedTitleRunes))
	}

	err := s.sessionRepo.Update(ctx, id, userID, model.SessionUpdate{Title: &title})
	if repository.IsNotFound(err) {
		audit.Log(ctx, audit.Event{Type: audit.EventOwnershipDenied, UserID: userID, SessionID: id,
			Details: map[string]any{"operation": "rename"}})
		return nil, apperrors.NotFound("Session")
	}
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("rename session: %w", err))
	}

	session, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{Type: audit.EventSessionRename, UserID: userID, SessionID: id})
	s.publish(ctx, userID, sse.Event{
		Type: sse.EventSessionRenamed,
		Data: sse.MustData(map[string]any{"sessionId": id, "title": session.Title}),
	})

	summary := session.Summary()
	return &summary, nil
}

// Delete removes the session if the user owns it. Deleting a missing or
// foreign session succeeds without touching anything.
func (s *SessionService) Delete(ctx context.Context, id, userID string) error {
	if err := s.sessionRepo.Delete(ctx, id, userID); err != nil {
		return apperrors.Database(fmt.Errorf("delete session: %w", err))
	}

	audit.Log(ctx, audit.Event{Type: audit.EventSessionDelete, UserID: userID, SessionID: id})
	s.publish(ctx, userID, sse.Event{
		Type: sse.EventSessionDeleted,
		Data: sse.MustData(map[string]any{"sessionId": id}),
	})
	return nil
}

func (s *SessionService) publish(ctx context.Context, userID string, event sse.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("userId", userID).Str("event", event.Type).Msg("failed to publish session event")
	}
}
