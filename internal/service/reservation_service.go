// Package service orchestrates reservation changes: it resolves what
// reception typed into ids, enforces the status lifecycle, runs the
// availability engine under a room lease and announces committed changes.
package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/availability"
    "github.com/iliyamo/hotel-reservation/internal/lock"
    "github.com/iliyamo/hotel-reservation/internal/logger"
    "github.com/iliyamo/hotel-reservation/internal/metrics"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/queue"
    "github.com/iliyamo/hotel-reservation/internal/repository"
)

// Store is the persistence the service needs.  *repository.ReservationRepo
// satisfies it.
type Store interface {
    availability.Store
    availability.Runner
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    Delete(ctx context.Context, id uint64) error
    Release(ctx context.Context, id uint64, from, to model.ReservationStatus) error
    CheckIn(ctx context.Context, id, staffID uint64, from model.ReservationStatus) error
    CheckOut(ctx context.Context, id, roomID uint64) error
}

// RoomResolver maps a room number to its id.
type RoomResolver interface {
    ResolveNumber(ctx context.Context, number string) (uint64, error)
}

// GuestResolver maps an id, email or display name to a user id.
type GuestResolver interface {
    ResolveGuest(ctx context.Context, id uint64, email, name string) (uint64, error)
}

// Publisher announces committed reservation changes.
type Publisher interface {
    Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationInput is a create or update request.  For updates, zero
// values keep the stored value.
type ReservationInput struct {
    UserID   uint64
    Email    string
    Guest    string
    RoomID   uint64
    Room     string
    CheckIn  string
    CheckOut string
    Status   string
}

func (in ReservationInput) hasGuest() bool {
    return in.UserID > 0 || strings.TrimSpace(in.Email) != "" || strings.TrimSpace(in.Guest) != ""
}

func (in ReservationInput) hasRoom() bool {
    return in.RoomID > 0 || strings.TrimSpace(in.Room) != ""
}

// AvailabilityQuery asks whether a stay could be admitted right now.
type AvailabilityQuery struct {
    RoomID    uint64
    Room      string
    CheckIn   string
    CheckOut  string
    ExcludeID uint64
}

// ReservationService is safe for concurrent use.
type ReservationService struct {
    store   Store
    rooms   RoomResolver
    guests  GuestResolver
    locker  lock.RoomLocker
    events  Publisher
    metrics *metrics.Metrics
    now     func() time.Time
}

// Option customises a ReservationService.
type Option func(*ReservationService)

func WithLocker(l lock.RoomLocker) Option   { return func(s *ReservationService) { s.locker = l } }
func WithPublisher(p Publisher) Option      { return func(s *ReservationService) { s.events = p } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *ReservationService) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *ReservationService) { s.now = now } }

// NewReservationService wires the service.  Without options it takes no
// lease, publishes nothing and records no metrics.
func NewReservationService(store Store, rooms RoomResolver, guests GuestResolver, opts ...Option) *ReservationService {
    s := &ReservationService{
        store:  store,
        rooms:  rooms,
        guests: guests,
        locker: lock.Nop{},
        now:    time.Now,
    }
    for _, o := range opts {
        o(s)
    }
    return s
}

// Create admits and stores a new reservation.  Status defaults to
// pending; only pending and confirmed are accepted on creation.
func (s *ReservationService) Create(ctx context.Context, in ReservationInput) (*model.Reservation, error) {
    if !in.hasGuest() || !in.hasRoom() || strings.TrimSpace(in.CheckIn) == "" || strings.TrimSpace(in.CheckOut) == "" {
        return nil, ErrMissingFields
    }
    status := model.StatusPending
    if strings.TrimSpace(in.Status) != "" {
        st, ok := model.ParseReservationStatus(in.Status)
        if !ok || (st != model.StatusPending && st != model.StatusConfirmed) {
            return nil, ErrInvalidStatus
        }
        status = st
    }
    stay, err := parseStay(in.CheckIn, in.CheckOut)
    if err != nil {
        return nil, err
    }
    // Range first: nothing is read when the dates are inverted.
    if !stay.Valid() {
        s.metrics.Admission(availability.Outcome(availability.ErrInvalidRange))
        return nil, availability.ErrInvalidRange
    }
    guestID, err := s.guests.ResolveGuest(ctx, in.UserID, in.Email, in.Guest)
    if err != nil {
        return nil, err
    }
    roomID, err := s.resolveRoom(ctx, in.RoomID, in.Room)
    if err != nil {
        return nil, err
    }

    res := &model.Reservation{
        UserID:    guestID,
        RoomID:    roomID,
        CheckIn:   stay.CheckIn,
        CheckOut:  stay.CheckOut,
        Status:    status,
        CreatedAt: s.now().UTC(),
    }
    err = s.admit(ctx, availability.Candidate{RoomID: roomID, Stay: stay}, func(ctx context.Context, tx availability.Tx) error {
        return tx.InsertReservation(ctx, res)
    })
    if err != nil {
        return nil, err
    }
    logger.L().Info("reservation created", logger.ReservationID(res.ID), logger.RoomID(roomID), logger.UserID(guestID))
    s.publish(ctx, queue.EventCreated, *res, "")
    return res, nil
}

// Update changes guest, room, dates or status of reservation id.
// Closed reservations cannot be edited.  Check-in, check-out and
// cancellation only change the status and go through their own writes;
// every other change is admitted again, excluding the reservation itself.
func (s *ReservationService) Update(ctx context.Context, id uint64, in ReservationInput) (*model.Reservation, error) {
    cur, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if cur.Status.IsTerminal() {
        return nil, ErrReservationClosed
    }
    next := *cur

    if strings.TrimSpace(in.Status) != "" {
        st, ok := model.ParseReservationStatus(in.Status)
        if !ok {
            return nil, ErrInvalidStatus
        }
        next.Status = st
    }
    if !cur.Status.CanTransitionTo(next.Status) {
        return nil, ErrInvalidTransition
    }
    checkIn, checkOut := cur.CheckIn.Format(model.DateLayout), cur.CheckOut.Format(model.DateLayout)
    if strings.TrimSpace(in.CheckIn) != "" {
        checkIn = in.CheckIn
    }
    if strings.TrimSpace(in.CheckOut) != "" {
        checkOut = in.CheckOut
    }
    stay, err := parseStay(checkIn, checkOut)
    if err != nil {
        return nil, err
    }
    if !stay.Valid() {
        s.metrics.Admission(availability.Outcome(availability.ErrInvalidRange))
        return nil, availability.ErrInvalidRange
    }
    next.CheckIn, next.CheckOut = stay.CheckIn, stay.CheckOut

    if in.hasGuest() {
        if next.UserID, err = s.guests.ResolveGuest(ctx, in.UserID, in.Email, in.Guest); err != nil {
            return nil, err
        }
    }
    if in.hasRoom() {
        if next.RoomID, err = s.resolveRoom(ctx, in.RoomID, in.Room); err != nil {
            return nil, err
        }
    }

    switch {
    case next.Status == cur.Status || next.Status == model.StatusConfirmed:
        if err := s.readmit(ctx, *cur, &next); err != nil {
            return nil, err
        }
    case !sameBooking(next, *cur):
        return nil, ErrStatusOnly
    case next.Status == model.StatusCheckedIn:
        return s.CheckIn(ctx, id, 0)
    case next.Status == model.StatusCheckedOut:
        return s.CheckOut(ctx, id, 0)
    default:
        if err := s.store.Release(ctx, id, cur.Status, next.Status); err != nil {
            return nil, err
        }
    }
    logger.L().Info("reservation updated", logger.ReservationID(id), logger.RoomID(next.RoomID),
        zap.String("status", string(next.Status)), zap.String("previous_status", string(cur.Status)))
    s.publish(ctx, queue.EventUpdated, next, cur.Status)
    return &next, nil
}

// readmit writes next over cur after admitting it again.  The stored row
// must still match cur; anything else means another request got there
// first and the write is refused with repository.ErrConflict.
func (s *ReservationService) readmit(ctx context.Context, cur model.Reservation, next *model.Reservation) error {
    c := availability.Candidate{RoomID: next.RoomID, Stay: next.Stay(), ExcludeID: cur.ID}
    return s.admit(ctx, c, func(ctx context.Context, tx availability.Tx) error {
        locked, ok, err := tx.LockReservation(ctx, cur.ID)
        if err != nil {
            return err
        }
        if !ok {
            return repository.ErrReservationNotFound
        }
        if locked.Status != cur.Status || !sameBooking(locked, cur) {
            return repository.ErrConflict
        }
        return tx.UpdateReservation(ctx, next)
    })
}

// sameBooking reports whether a and b hold the same guest, room and stay.
func sameBooking(a, b model.Reservation) bool {
    return a.UserID == b.UserID && a.RoomID == b.RoomID &&
        a.CheckIn.Equal(b.CheckIn) && a.CheckOut.Equal(b.CheckOut)
}

// Delete removes a reservation administratively; no check is re-run.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
    cur, err := s.store.GetByID(ctx, id)
    if err != nil {
        return err
    }
    if err := s.store.Delete(ctx, id); err != nil {
        return err
    }
    logger.L().Info("reservation deleted", logger.ReservationID(id))
    s.publish(ctx, queue.EventDeleted, *cur, cur.Status)
    return nil
}

// CheckIn moves a pending or confirmed reservation to checked_in and
// records the staff member who did it (0 when unknown).
func (s *ReservationService) CheckIn(ctx context.Context, id, staffID uint64) (*model.Reservation, error) {
    cur, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if cur.Status == model.StatusCheckedIn || !cur.Status.CanTransitionTo(model.StatusCheckedIn) {
        return nil, ErrInvalidTransition
    }
    if err := s.store.CheckIn(ctx, id, staffID, cur.Status); err != nil {
        return nil, err
    }
    prev := cur.Status
    cur.Status = model.StatusCheckedIn
    logger.L().Info("guest checked in", logger.ReservationID(id), logger.RoomID(cur.RoomID), zap.Uint64("staff_id", staffID))
    s.publishBy(ctx, queue.EventCheckedIn, *cur, prev, staffID)
    return cur, nil
}

// CheckOut closes a checked_in reservation; the room goes to housekeeping.
func (s *ReservationService) CheckOut(ctx context.Context, id, staffID uint64) (*model.Reservation, error) {
    cur, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if cur.Status != model.StatusCheckedIn {
        return nil, ErrInvalidTransition
    }
    if err := s.store.CheckOut(ctx, id, cur.RoomID); err != nil {
        return nil, err
    }
    cur.Status = model.StatusCheckedOut
    logger.L().Info("guest checked out", logger.ReservationID(id), logger.RoomID(cur.RoomID))
    s.publishBy(ctx, queue.EventCheckedOut, *cur, model.StatusCheckedIn, staffID)
    return cur, nil
}

// Availability runs the admission rules without writing or locking.
// It returns nil when the stay would be admitted at this moment.
func (s *ReservationService) Availability(ctx context.Context, q AvailabilityQuery) error {
    if strings.TrimSpace(q.CheckIn) == "" || strings.TrimSpace(q.CheckOut) == "" {
        return ErrMissingFields
    }
    stay, err := parseStay(q.CheckIn, q.CheckOut)
    if err != nil {
        return err
    }
    if !stay.Valid() {
        return availability.ErrInvalidRange
    }
    roomID, err := s.resolveRoom(ctx, q.RoomID, q.Room)
    if err != nil {
        return err
    }
    return availability.Check(ctx, s.store, availability.Candidate{RoomID: roomID, Stay: stay, ExcludeID: q.ExcludeID})
}

func (s *ReservationService) admit(ctx context.Context, c availability.Candidate, write func(context.Context, availability.Tx) error) error {
    release, err := s.locker.Acquire(ctx, c.RoomID)
    if err != nil {
        return err
    }
    defer release()

    err = availability.Admit(ctx, s.store, c, write)
    outcome := availability.Outcome(err)
    s.metrics.Admission(outcome)
    if outcome != "admitted" {
        logger.L().Info("admission refused", logger.RoomID(c.RoomID), logger.Outcome(outcome),
            logger.ReservationID(c.ExcludeID), zap.Error(err))
    }
    return err
}

// resolveRoom returns id when set, leaving existence to the engine;
// otherwise the number is looked up.
func (s *ReservationService) resolveRoom(ctx context.Context, id uint64, number string) (uint64, error) {
    if id > 0 {
        return id, nil
    }
    roomID, err := s.rooms.ResolveNumber(ctx, number)
    if errors.Is(err, repository.ErrRoomNotFound) {
        return 0, availability.ErrRoomNotFound
    }
    return roomID, err
}

func (s *ReservationService) publish(ctx context.Context, typ string, r model.Reservation, prev model.ReservationStatus) {
    s.publishBy(ctx, typ, r, prev, 0)
}

// publishBy is best-effort: a broker failure is logged and counted but
// never undoes or fails the committed change.
func (s *ReservationService) publishBy(ctx context.Context, typ string, r model.Reservation, prev model.ReservationStatus, actor uint64) {
    if s.events == nil {
        return
    }
    ev := queue.NewEvent(typ, r, prev, s.now())
    ev.ActorID = actor
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
    defer cancel()
    err := s.events.Publish(pctx, ev)
    s.metrics.Event(typ, err)
    if err != nil {
        logger.L().Warn("reservation event not published", zap.String("event", typ), logger.ReservationID(r.ID), zap.Error(err))
    }
}

func parseStay(checkIn, checkOut string) (model.Stay, error) {
    in, err := model.ParseDate(checkIn)
    if err != nil {
        return model.Stay{}, ErrInvalidDate
    }
    out, err := model.ParseDate(checkOut)
    if err != nil {
        return model.Stay{}, ErrInvalidDate
    }
    return model.Stay{CheckIn: in, CheckOut: out}, nil
}
