// Package queue carries reservation events over RabbitMQ.
package queue

import (
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Event types, also used as metric labels.
const (
    EventCreated    = "reservation.created"
    EventUpdated    = "reservation.updated"
    EventDeleted    = "reservation.deleted"
    EventCheckedIn  = "reservation.checked_in"
    EventCheckedOut = "reservation.checked_out"
)

// ReservationEvent is published after a reservation change has been
// committed.  It holds enough for consumers to log or notify without
// reading the primary database.
type ReservationEvent struct {
    Type           string `json:"type"`
    ReservationID  uint64 `json:"reservation_id"`
    UserID         uint64 `json:"user_id"`
    RoomID         uint64 `json:"room_id"`
    CheckIn        string `json:"check_in"`
    CheckOut       string `json:"check_out"`
    Status         string `json:"status"`
    PreviousStatus string `json:"previous_status,omitempty"`
    ActorID        uint64 `json:"actor_id,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}

// NewEvent builds an event of typ describing r at time at.
func NewEvent(typ string, r model.Reservation, prev model.ReservationStatus, at time.Time) ReservationEvent {
    return ReservationEvent{
        Type:           typ,
        ReservationID:  r.ID,
        UserID:         r.UserID,
        RoomID:         r.RoomID,
        CheckIn:        r.CheckIn.Format(model.DateLayout),
        CheckOut:       r.CheckOut.Format(model.DateLayout),
        Status:         string(r.Status),
        PreviousStatus: string(prev),
        OccurredAt:     at.UTC().Format(time.RFC3339),
    }
}
