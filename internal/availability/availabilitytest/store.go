// Package availabilitytest provides an in-memory availability store for
// tests of the engine and of packages built on top of it.
package availabilitytest

import (
    "context"
    "errors"
    "sort"
    "sync"

    "github.com/iliyamo/hotel-reservation/internal/availability"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Store keeps rooms and reservations in maps.  WithRoomLock serializes
// callers per room and applies staged writes only when fn succeeds.
type Store struct {
    mu           sync.Mutex
    rooms        map[uint64]model.RoomStatus
    reservations map[uint64]model.Reservation
    nextID       uint64
    locks        map[uint64]*sync.Mutex

    // Reads counts storage reads; tests use it to prove that some
    // rejections happen before storage is touched.
    Reads int
    // FailReads makes every read return this error when non-nil.
    FailReads error
}

// New returns an empty store.
func New() *Store {
    return &Store{
        rooms:        map[uint64]model.RoomStatus{},
        reservations: map[uint64]model.Reservation{},
        locks:        map[uint64]*sync.Mutex{},
    }
}

// SetRoom creates or updates a room.
func (s *Store) SetRoom(id uint64, status model.RoomStatus) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.rooms[id] = status
}

// Put stores r, assigning an id when r.ID is zero, and returns the id.
func (s *Store) Put(r model.Reservation) uint64 {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.put(r)
}

func (s *Store) put(r model.Reservation) uint64 {
    if r.ID == 0 {
        s.nextID++
        r.ID = s.nextID
    } else if r.ID > s.nextID {
        s.nextID = r.ID
    }
    s.reservations[r.ID] = r
    return r.ID
}

// Get returns a copy of the reservation with id.
func (s *Store) Get(id uint64) (model.Reservation, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.reservations[id]
    return r, ok
}

// Remove deletes a reservation and reports whether it existed.
func (s *Store) Remove(id uint64) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    _, ok := s.reservations[id]
    delete(s.reservations, id)
    return ok
}

// All returns every reservation ordered by id.
func (s *Store) All() []model.Reservation {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Reservation, 0, len(s.reservations))
    for _, r := range s.reservations {
        out = append(out, r)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out
}

// RoomStatus implements availability.Store.
func (s *Store) RoomStatus(_ context.Context, roomID uint64) (model.RoomStatus, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.Reads++
    if s.FailReads != nil {
        return "", false, s.FailReads
    }
    st, ok := s.rooms[roomID]
    return st, ok, nil
}

// ActiveReservations implements availability.Store.
func (s *Store) ActiveReservations(_ context.Context, roomID, excludeID uint64) ([]model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.Reads++
    if s.FailReads != nil {
        return nil, s.FailReads
    }
    var out []model.Reservation
    for _, r := range s.reservations {
        if r.RoomID == roomID && r.ID != excludeID && r.Status.IsActive() {
            out = append(out, r)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *Store) roomLock(roomID uint64) *sync.Mutex {
    s.mu.Lock()
    defer s.mu.Unlock()
    l, ok := s.locks[roomID]
    if !ok {
        l = &sync.Mutex{}
        s.locks[roomID] = l
    }
    return l
}

// WithRoomLock implements availability.Runner.
func (s *Store) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx availability.Tx) error) error {
    l := s.roomLock(roomID)
    l.Lock()
    defer l.Unlock()
    if err := ctx.Err(); err != nil {
        return err
    }
    tx := &memTx{Store: s}
    if err := fn(tx); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    for i := range tx.staged {
        id := s.put(*tx.staged[i].r)
        tx.staged[i].r.ID = id
    }
    return nil
}

// ErrMissing is returned by UpdateReservation for an unknown id.
var ErrMissing = errors.New("availabilitytest: reservation missing")

type staged struct{ r *model.Reservation }

type memTx struct {
    *Store
    staged []staged
}

func (t *memTx) LockReservation(_ context.Context, id uint64) (model.Reservation, bool, error) {
    r, ok := t.Get(id)
    return r, ok, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
    r.ID = 0
    t.staged = append(t.staged, staged{r: r})
    return nil
}

func (t *memTx) UpdateReservation(_ context.Context, r *model.Reservation) error {
    if _, ok := t.Get(r.ID); !ok {
        return ErrMissing
    }
    t.staged = append(t.staged, staged{r: r})
    return nil
}
