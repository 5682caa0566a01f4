package repository

import (
    "context"
    "database/sql"
    "fmt"
)

// inTx runs fn inside a transaction and commits when fn returns nil.
// Any error from fn, or a panic, rolls the transaction back.
func inTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, opts)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit: %w", err)
    }
    committed = true
    return nil
}

// lockRoom takes the row lock on rooms.room_id and returns its status.
// found is false when the room does not exist.
func lockRoom(ctx context.Context, tx *sql.Tx, roomID uint64) (status string, found bool, err error) {
    err = tx.QueryRowContext(ctx,
        "SELECT status FROM rooms WHERE room_id=? FOR UPDATE", roomID).Scan(&status)
    if err == sql.ErrNoRows {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return status, true, nil
}

func logRoomStatus(ctx context.Context, tx *sql.Tx, roomID uint64, status string) error {
    _, err := tx.ExecContext(ctx,
        "INSERT INTO room_status_logs (room_id, status, changed_at) VALUES (?,?,UTC_TIMESTAMP())",
        roomID, status)
    return err
}
