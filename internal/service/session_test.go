package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wanderai/api-server/internal/errors"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/repository"
	"github.com/wanderai/api-server/internal/sse"
)

func newSessionFixture(t *testing.T) (*SessionService, repository.SessionRepository, *recordingPublisher) {
	t.Helper()
	repo := repository.NewMemorySessionRepository()
	events := &recordingPublisher{}

	_, err := repo.GetOrCreate(context.Background(), "s-a", userA)
	require.NoError(t, err)
	title := "Beach trip"
	require.NoError(t, repo.Update(context.Background(), "s-a", userA, model.SessionUpdate{Title: &title}))

	return NewSessionService(repo, events), repo, events
}

func TestSessionService_List(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	sessions, err := svc.List(context.Background(), userA)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Beach trip", sessions[0].Title)

	sessions, err = svc.List(context.Background(), userB)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionService_Get(t *testing.T) {
	svc, _, _ := newSessionFixture(t)

	session, err := svc.Get(context.Background(), "s-a", userA)
	require.NoError(t, err)
	assert.Equal(t, "s-a", session.ID)

	_, err = svc.Get(context.Background(), "s-a", userB)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestSessionService_Rename(t *testing.T) {
	t.Run("renames an owned session", func(t *testing.T) {
		svc, repo, events := newSessionFixture(t)

		summary, err := svc.Rename(context.Background(), "s-a", userA, "  Goa with friends ")
		require.NoError(t, err)
		assert.Equal(t, "Goa with friends", summary.Title)

		stored, err := repo.Get(context.Background(), "s-a", userA)
		require.NoError(t, err)
		assert.Equal(t, "Goa with friends", stored.Title)
		assert.Equal(t, []string{sse.EventSessionRenamed}, events.types())
	})

	t.Run("validates the title", func(t *testing.T) {
		svc, _, events := newSessionFixture(t)

		_, err := svc.Rename(context.Background(), "s-a", userA, "   ")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))

		_, err = svc.Rename(context.Background(), "s-a", userA, strings.Repeat("é", 101))
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))

		_, err = svc.Rename(context.Background(), "s-a", userA, strings.Repeat("é", 100))
		assert.NoError(t, err)
		assert.Len(t, events.types(), 1)
	})

	t.Run("foreign session is not found and untouched", func(t *testing.T) {
		svc, repo, events := newSessionFixture(t)

		_, err := svc.Rename(context.Background(), "s-a", userB, "mine now")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))

		stored, err := repo.Get(context.Background(), "s-a", userA)
		require.NoError(t, err)
		assert.Equal(t, "Beach trip", stored.Title)
		assert.Empty(t, events.types())
	})

	t.Run("missing session is not found", func(t *testing.T) {
		svc, _, _ := newSessionFixture(t)

		_, err := svc.Rename(context.Background(), "nope", userA, "title")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestSessionService_Delete(t *testing.T) {
	t.Run("deletes an owned session", func(t *testing.T) {
		svc, repo, events := newSessionFixture(t)

		require.NoError(t, svc.Delete(context.Background(), "s-a", userA))

		stored, err := repo.Get(context.Background(), "s-a", userA)
		require.NoError(t, err)
		assert.Nil(t, stored)
		assert.Equal(t, []string{sse.EventSessionDeleted}, events.types())
	})

	t.Run("is idempotent", func(t *testing.T) {
		svc, _, _ := newSessionFixture(t)

		require.NoError(t, svc.Delete(context.Background(), "s-a", userA))
		require.NoError(t, svc.Delete(context.Background(), "s-a", userA))
		require.NoError(t, svc.Delete(context.Background(), "never-existed", userA))
	})

	t.Run("never touches a foreign session", func(t *testing.T) {
		svc, repo, _ := newSessionFixture(t)

		require.NoError(t, svc.Delete(context.Background(), "s-a", userB))

		stored, err := repo.Get(context.Background(), "s-a", userA)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})
}
