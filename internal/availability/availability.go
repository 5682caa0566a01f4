// Package availability decides whether a room can take a stay.  It reads
// room status and active reservations through Store and never writes;
// Admit pairs the decision with a caller supplied write inside one
// room-locked scope so that two admissions on the same room serialize.
package availability

import (
    "context"
    "errors"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Store is the read side the engine needs.
type Store interface {
    // RoomStatus returns the room's status; found is false when no room
    // has that id.
    RoomStatus(ctx context.Context, roomID uint64) (status model.RoomStatus, found bool, err error)
    // ActiveReservations returns reservations of roomID whose status is
    // active, omitting excludeID (0 excludes nothing).
    ActiveReservations(ctx context.Context, roomID, excludeID uint64) ([]model.Reservation, error)
}

// Tx is a Store bound to a room-locked transaction that can also write.
type Tx interface {
    Store
    // LockReservation reads a reservation and holds it until the
    // transaction ends; ok is false when no reservation has that id.
    LockReservation(ctx context.Context, id uint64) (r model.Reservation, ok bool, err error)
    InsertReservation(ctx context.Context, r *model.Reservation) error
    UpdateReservation(ctx context.Context, r *model.Reservation) error
}

// Runner opens a transaction that holds an exclusive lock on roomID for
// its whole duration.  fn returning an error rolls the transaction back.
type Runner interface {
    WithRoomLock(ctx context.Context, roomID uint64, fn func(tx Tx) error) error
}

// Candidate is a stay to be admitted.  ExcludeID is the reservation being
// edited, so that it does not conflict with itself.
type Candidate struct {
    RoomID    uint64
    Stay      model.Stay
    ExcludeID uint64
}

// Overlaps reports whether two half-open stays share at least one night.
// Back-to-back stays, where one checks out on the day the other checks
// in, do not overlap.
func Overlaps(a, b model.Stay) bool {
    return !(!a.CheckOut.After(b.CheckIn) || !a.CheckIn.Before(b.CheckOut))
}

// Check runs the admission rules against store in order: range, room
// existence, room status, then date overlap.  It returns nil to admit,
// a *Rejection to refuse, or a storage error.
func Check(ctx context.Context, store Store, c Candidate) error {
    if !c.Stay.Valid() {
        return ErrInvalidRange
    }
    status, found, err := store.RoomStatus(ctx, c.RoomID)
    if err != nil {
        return err
    }
    if !found {
        return ErrRoomNotFound
    }
    // Coarse gate: an occupied room refuses every stay regardless of dates.
    if status != model.RoomAvailable {
        return roomNotAvailable(status)
    }
    existing, err := store.ActiveReservations(ctx, c.RoomID, c.ExcludeID)
    if err != nil {
        return err
    }
    for _, r := range existing {
        // Stores should already drop these; Check does not rely on it.
        if r.ID == c.ExcludeID || !r.Status.IsActive() {
            continue
        }
        if Overlaps(r.Stay(), c.Stay) {
            return dateConflict(r)
        }
    }
    return nil
}

// Admit checks c and, when admitted, calls write inside the same locked
// transaction.  The range check happens before any storage access.
func Admit(ctx context.Context, runner Runner, c Candidate, write func(ctx context.Context, tx Tx) error) error {
    if !c.Stay.Valid() {
        return ErrInvalidRange
    }
    return runner.WithRoomLock(ctx, c.RoomID, func(tx Tx) error {
        if err := Check(ctx, tx, c); err != nil {
            return err
        }
        return write(ctx, tx)
    })
}

// Outcome names the result of an admission for metrics and logs.
func Outcome(err error) string {
    if err == nil {
        return "admitted"
    }
    var rej *Rejection
    if errors.As(err, &rej) {
        return string(rej.Code)
    }
    return "error"
}
