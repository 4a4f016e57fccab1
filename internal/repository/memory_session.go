package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/wanderai/api-server/internal/model"
)

// memorySessionRepo keeps sessions for the lifetime of the process. Every
// read and write goes through a deep copy, so callers never share state
// with the store.
type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	now      func() time.Time
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

func (r *memorySessionRepo) GetOrCreate(_ context.Context, id, userID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		if s.UserID != userID {
			return nil, ErrSessionNotFound
		}
		return s.Clone(), nil
	}

	now := r.tick(time.Time{})
	s := &model.Session{
		ID:              id,
		UserID:          userID,
		Stage:           model.StageNew,
		History:         model.History{},
		SuggestedPlaces: pq.StringArray{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.sessions[id] = s
	return s.Clone(), nil
}

func (r *memorySessionRepo) Get(_ context.Context, id, userID string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *memorySessionRepo) Update(_ context.Context, id, userID string, update model.SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return ErrSessionNotFound
	}
	if update.ExpectedUpdatedAt != nil && !s.UpdatedAt.Equal(*update.ExpectedUpdatedAt) {
		return ErrSessionConflict
	}

	next := s.Clone()
	update.Apply(next)
	next.UpdatedAt = r.tick(s.UpdatedAt)
	r.sessions[id] = next
	return nil
}

func (r *memorySessionRepo) ListByUser(_ context.Context, userID string) ([]model.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.SessionSummary{}
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && s.UserID == userID {
		delete(r.sessions, id)
	}
	return nil
}

// tick returns the current time, nudged past prev so updated_at strictly
// increases even when the clock has not moved.
func (r *memorySessionRepo) tick(prev time.Time) time.Time {
	now := r.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
