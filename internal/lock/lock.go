// Package lock serializes chat turns on a single session.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the session stays locked for longer than
// the caller is willing to wait.
var ErrLockTimeout = errors.New("session lock wait timed out")

// Locker hands out an exclusive lease for one (session, user) pair. The
// returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, sessionID, userID string) (release func(), err error)
}

func key(sessionID, userID string) string {
	return userID + "\x00" + sessionID
}
