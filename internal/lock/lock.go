// Package lock provides per-room leases held in front of the admission
// transaction.  The database row lock is what guarantees correctness;
// a lease keeps competing requests for one room from piling up on that
// row and, in the Redis flavour, spreads the queueing across instances.
package lock

import (
    "context"
    "errors"
    "sync"
)

// ErrBusy is returned when a lease could not be acquired before the
// context or the acquire timeout expired.
var ErrBusy = errors.New("room is locked by another request")

// RoomLocker hands out an exclusive lease on one room.  The returned
// release func must be called exactly once.
type RoomLocker interface {
    Acquire(ctx context.Context, roomID uint64) (release func(), err error)
}

// Nop never blocks.
type Nop struct{}

func (Nop) Acquire(context.Context, uint64) (func(), error) { return func() {}, nil }

// Local serializes callers inside one process with a channel per room.
// Entries are reference counted and dropped when the last holder leaves.
type Local struct {
    mu    sync.Mutex
    rooms map[uint64]*localEntry
}

type localEntry struct {
    ch   chan struct{}
    refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local { return &Local{rooms: map[uint64]*localEntry{}} }

func (l *Local) Acquire(ctx context.Context, roomID uint64) (func(), error) {
    l.mu.Lock()
    e, ok := l.rooms[roomID]
    if !ok {
        e = &localEntry{ch: make(chan struct{}, 1)}
        l.rooms[roomID] = e
    }
    e.refs++
    l.mu.Unlock()

    select {
    case e.ch <- struct{}{}:
    case <-ctx.Done():
        l.drop(roomID, e)
        return nil, ErrBusy
    }
    var once sync.Once
    return func() {
        once.Do(func() {
            <-e.ch
            l.drop(roomID, e)
        })
    }, nil
}

func (l *Local) drop(roomID uint64, e *localEntry) {
    l.mu.Lock()
    defer l.mu.Unlock()
    e.refs--
    if e.refs == 0 {
        delete(l.rooms, roomID)
    }
}

// held reports how many rooms currently have an entry.
func (l *Local) held() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.rooms)
}
