package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wanderai/api-server/internal/model"
)

var (
	// ErrSessionNotFound is returned when no session matches both the id and
	// the owning user. A session owned by someone else is reported the same way.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionConflict is returned by Update when ExpectedUpdatedAt no
	// longer matches the stored row.
	ErrSessionConflict = errors.New("session was modified concurrently")
)

type SessionRepository interface {
	// GetOrCreate returns the caller's session, creating an empty one when
	// the id is unused.
	GetOrCreate(ctx context.Context, id, userID string) (*model.Session, error)
	// Get returns nil, nil when the caller owns no session with that id.
	Get(ctx context.Context, id, userID string) (*model.Session, error)
	Update(ctx context.Context, id, userID string, update model.SessionUpdate) error
	ListByUser(ctx context.Context, userID string) ([]model.SessionSummary, error)
	Delete(ctx context.Context, id, userID string) error
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) GetOrCreate(ctx context.Context, id, userID string) (*model.Session, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	session, err := r.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepo) Get(ctx context.Context, id, userID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM chat_sessions WHERE id = $1 AND user_id = $2
	`, id, userID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Update(ctx context.Context, id, userID string, update model.SessionUpdate) error {
	sets, args := updateAssignments(update)
	sets = append(sets, "updated_at = clock_timestamp()")
	args = append(args, id, userID)

	query := fmt.Sprintf(`UPDATE chat_sessions SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	if update.ExpectedUpdatedAt != nil {
		args = append(args, *update.ExpectedUpdatedAt)
		query += fmt.Sprintf(" AND updated_at = $%d", len(args))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	if update.ExpectedUpdatedAt == nil {
		return ErrSessionNotFound
	}
	existing, err := r.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSessionNotFound
	}
	return ErrSessionConflict
}

func updateAssignments(update model.SessionUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Stage != nil {
		add("stage", *update.Stage)
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Intent != nil {
		add("intent", *update.Intent)
	}
	if update.Destination != nil {
		add("destination", *update.Destination)
	}
	if update.Itinerary != nil {
		add("itinerary", *update.Itinerary)
	}
	if update.History != nil {
		add("history", *update.History)
	}
	if update.SuggestedPlaces != nil {
		add("suggested_places", pq.StringArray(*update.SuggestedPlaces))
	}
	return sets, args
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]model.SessionSummary, error) {
	sessions := []model.SessionSummary{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	return sessions, err
}

func (r *sessionRepo) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2
	`, id, userID)
	return err
}
