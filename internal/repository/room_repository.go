package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomRepo reads rooms and records housekeeping status changes.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to db.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// ResolveNumber maps a human entered room number to its id.  Room numbers
// are unique per hotel, so the lowest id wins when several hotels share
// a number.
func (r *RoomRepo) ResolveNumber(ctx context.Context, number string) (uint64, error) {
    number = strings.TrimSpace(number)
    if number == "" {
        return 0, ErrRoomNotFound
    }
    var id uint64
    err := r.db.QueryRowContext(ctx,
        "SELECT room_id FROM rooms WHERE room_number=? ORDER BY room_id LIMIT 1", number).Scan(&id)
    if err == sql.ErrNoRows {
        return 0, ErrRoomNotFound
    }
    return id, err
}

// ListWithHotel returns every room with its hotel name, ordered for the
// reception board.
func (r *RoomRepo) ListWithHotel(ctx context.Context) ([]model.Room, error) {
    const q = `SELECT rm.room_id, rm.hotel_id, rm.room_number, rm.type, rm.status, rm.created_at, h.name
               FROM rooms rm
               JOIN hotels h ON h.hotel_id = rm.hotel_id
               ORDER BY h.name, rm.room_number`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Room{}
    for rows.Next() {
        var rm model.Room
        var status string
        if err := rows.Scan(&rm.ID, &rm.HotelID, &rm.Number, &rm.Type, &status, &rm.CreatedAt, &rm.HotelName); err != nil {
            return nil, err
        }
        rm.Status = model.RoomStatus(status)
        out = append(out, rm)
    }
    return out, rows.Err()
}

// UpdateStatus sets the room's status and appends a row to
// room_status_logs in the same transaction.
func (r *RoomRepo) UpdateStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error {
    return inTx(ctx, r.db, nil, func(tx *sql.Tx) error {
        _, found, err := lockRoom(ctx, tx, roomID)
        if err != nil {
            return err
        }
        if !found {
            return ErrRoomNotFound
        }
        if _, err := tx.ExecContext(ctx,
            "UPDATE rooms SET status=? WHERE room_id=?", string(status), roomID); err != nil {
            return err
        }
        return logRoomStatus(ctx, tx, roomID, string(status))
    })
}
