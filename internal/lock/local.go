package lock

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	slot chan struct{}
	refs int // protected by LocalLocker.mu
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits for them, so the map stays bounded by the number
// of sessions in flight.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	wait    time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		wait:    wait,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, sessionID, userID string) (func(), error) {
	k := key(sessionID, userID)

	l.mu.Lock()
	e, ok := l.entries[k]
	if !ok {
		e = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[k] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(k, e)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(k, e)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			l.unref(k, e)
		})
	}, nil
}

func (l *LocalLocker) unref(k string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, k)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
