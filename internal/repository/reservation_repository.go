package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/availability"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// ReservationRepo stores reservations and runs the room-locked
// admission transaction used by the availability engine.  Dates are
// DATE columns read back as UTC midnight (the DSN sets loc=UTC).
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationRow is a reservation joined with the guest and room labels
// shown on staff lists and dashboards.
type ReservationRow struct {
    model.Reservation
    GuestName  string `json:"guest"`
    GuestEmail string `json:"email"`
    RoomNumber string `json:"room"`
    HotelName  string `json:"hotel"`
}

const reservationCols = "reservation_id, user_id, room_id, check_in_date, check_out_date, status, created_at"

type scanner interface {
    Scan(dest ...any) error
}

func scanReservation(s scanner, extra ...any) (model.Reservation, error) {
    var (
        r      model.Reservation
        status string
    )
    dest := append([]any{&r.ID, &r.UserID, &r.RoomID, &r.CheckIn, &r.CheckOut, &status, &r.CreatedAt}, extra...)
    if err := s.Scan(dest...); err != nil {
        return r, err
    }
    r.Status = model.ReservationStatus(status)
    return r, nil
}

const rowSelect = `SELECT r.reservation_id, r.user_id, r.room_id, r.check_in_date, r.check_out_date, r.status, r.created_at,
                          u.name, u.email, rm.room_number, h.name
                   FROM reservations r
                   JOIN users u ON u.user_id = r.user_id
                   JOIN rooms rm ON rm.room_id = r.room_id
                   JOIN hotels h ON h.hotel_id = rm.hotel_id`

func (r *ReservationRepo) queryRows(ctx context.Context, q string, args ...any) ([]ReservationRow, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []ReservationRow{}
    for rows.Next() {
        var row ReservationRow
        res, err := scanReservation(rows, &row.GuestName, &row.GuestEmail, &row.RoomNumber, &row.HotelName)
        if err != nil {
            return nil, err
        }
        row.Reservation = res
        out = append(out, row)
    }
    return out, rows.Err()
}

// List returns every reservation, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]ReservationRow, error) {
    return r.queryRows(ctx, rowSelect+" ORDER BY r.created_at DESC, r.reservation_id DESC")
}

// Arrivals returns reservations due to check in on day that are still
// pending or confirmed.
func (r *ReservationRepo) Arrivals(ctx context.Context, day time.Time) ([]ReservationRow, error) {
    return r.queryRows(ctx,
        rowSelect+" WHERE r.check_in_date=? AND r.status IN ('pending','confirmed') ORDER BY rm.room_number",
        day.Format(model.DateLayout))
}

// GetByID returns the reservation with id or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(r.db.QueryRowContext(ctx,
        "SELECT "+reservationCols+" FROM reservations WHERE reservation_id=?", id))
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// Delete removes a reservation outright.  check_ins rows go with it
// through the foreign key's ON DELETE CASCADE.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE reservation_id=?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrReservationNotFound
    }
    return nil
}

// Release moves a reservation into a terminal status.  Terminal
// reservations hold no room, so no admission is needed.  Only the status
// column is written, and only while the stored status still equals from.
func (r *ReservationRepo) Release(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
    out, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET status=? WHERE reservation_id=? AND status=?",
        string(to), id, string(from))
    if err != nil {
        return err
    }
    return expectOne(out)
}

// CheckIn moves a reservation from `from` to checked_in and records who
// performed the check-in.  staffID 0 stores NULL.
func (r *ReservationRepo) CheckIn(ctx context.Context, id, staffID uint64, from model.ReservationStatus) error {
    return inTx(ctx, r.db, nil, func(tx *sql.Tx) error {
        out, err := tx.ExecContext(ctx,
            "UPDATE reservations SET status=? WHERE reservation_id=? AND status=?",
            string(model.StatusCheckedIn), id, string(from))
        if err != nil {
            return err
        }
        if err := expectOne(out); err != nil {
            return err
        }
        staff := sql.NullInt64{Int64: int64(staffID), Valid: staffID > 0}
        _, err = tx.ExecContext(ctx,
            "INSERT INTO check_ins (reservation_id, staff_user_id, check_in_at) VALUES (?,?,UTC_TIMESTAMP())",
            id, staff)
        return err
    })
}

// CheckOut closes a checked_in reservation and hands the room to
// housekeeping by marking it dirty.  The room row is locked first, the
// same order the admission transaction uses.
func (r *ReservationRepo) CheckOut(ctx context.Context, id, roomID uint64) error {
    return inTx(ctx, r.db, nil, func(tx *sql.Tx) error {
        if _, found, err := lockRoom(ctx, tx, roomID); err != nil {
            return err
        } else if !found {
            return ErrRoomNotFound
        }
        out, err := tx.ExecContext(ctx,
            "UPDATE reservations SET status=? WHERE reservation_id=? AND status=?",
            string(model.StatusCheckedOut), id, string(model.StatusCheckedIn))
        if err != nil {
            return err
        }
        if err := expectOne(out); err != nil {
            return err
        }
        if _, err := tx.ExecContext(ctx,
            "UPDATE rooms SET status=? WHERE room_id=?", string(model.RoomDirty), roomID); err != nil {
            return err
        }
        return logRoomStatus(ctx, tx, roomID, string(model.RoomDirty))
    })
}

// RoomStatus implements availability.Store outside any transaction, for
// read-only availability queries.
func (r *ReservationRepo) RoomStatus(ctx context.Context, roomID uint64) (model.RoomStatus, bool, error) {
    return roomStatus(ctx, r.db, roomID)
}

// ActiveReservations implements availability.Store outside any transaction.
func (r *ReservationRepo) ActiveReservations(ctx context.Context, roomID, excludeID uint64) ([]model.Reservation, error) {
    return activeReservations(ctx, r.db, roomID, excludeID)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func roomStatus(ctx context.Context, q querier, roomID uint64) (model.RoomStatus, bool, error) {
    var status string
    err := q.QueryRowContext(ctx, "SELECT status FROM rooms WHERE room_id=?", roomID).Scan(&status)
    if err == sql.ErrNoRows {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return model.RoomStatus(status), true, nil
}

func activeReservations(ctx context.Context, q querier, roomID, excludeID uint64) ([]model.Reservation, error) {
    rows, err := q.QueryContext(ctx,
        "SELECT "+reservationCols+` FROM reservations
         WHERE room_id=? AND reservation_id<>? AND status IN ('pending','confirmed','checked_in')
         ORDER BY check_in_date, reservation_id`, roomID, excludeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    return out, rows.Err()
}

func expectOne(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// WithRoomLock implements availability.Runner.  The transaction runs at
// READ COMMITTED so that reads issued after the room lock see every
// admission committed before the lock was granted.
func (r *ReservationRepo) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx availability.Tx) error) error {
    return inTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sql.Tx) error {
        status, found, err := lockRoom(ctx, tx, roomID)
        if err != nil {
            return err
        }
        return fn(&admissionTx{tx: tx, roomID: roomID, status: model.RoomStatus(status), found: found})
    })
}

// admissionTx is the availability.Tx handed to Admit callbacks.
type admissionTx struct {
    tx     *sql.Tx
    roomID uint64
    status model.RoomStatus
    found  bool
}

func (t *admissionTx) RoomStatus(ctx context.Context, roomID uint64) (model.RoomStatus, bool, error) {
    if roomID == t.roomID {
        return t.status, t.found, nil
    }
    return roomStatus(ctx, t.tx, roomID)
}

func (t *admissionTx) ActiveReservations(ctx context.Context, roomID, excludeID uint64) ([]model.Reservation, error) {
    return activeReservations(ctx, t.tx, roomID, excludeID)
}

func (t *admissionTx) LockReservation(ctx context.Context, id uint64) (model.Reservation, bool, error) {
    res, err := scanReservation(t.tx.QueryRowContext(ctx,
        "SELECT "+reservationCols+" FROM reservations WHERE reservation_id=? FOR UPDATE", id))
    if err == sql.ErrNoRows {
        return res, false, nil
    }
    if err != nil {
        return res, false, err
    }
    return res, true, nil
}

func (t *admissionTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
    out, err := t.tx.ExecContext(ctx,
        "INSERT INTO reservations (user_id, room_id, check_in_date, check_out_date, status, created_at) VALUES (?,?,?,?,?,?)",
        res.UserID, res.RoomID, res.CheckIn.Format(model.DateLayout), res.CheckOut.Format(model.DateLayout),
        string(res.Status), res.CreatedAt)
    if err != nil {
        return err
    }
    id, err := out.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

func (t *admissionTx) UpdateReservation(ctx context.Context, res *model.Reservation) error {
    _, err := t.tx.ExecContext(ctx,
        `UPDATE reservations SET user_id=?, room_id=?, check_in_date=?, check_out_date=?, status=?
         WHERE reservation_id=?`,
        res.UserID, res.RoomID, res.CheckIn.Format(model.DateLayout), res.CheckOut.Format(model.DateLayout),
        string(res.Status), res.ID)
    return err
}
