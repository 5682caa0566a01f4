package model

import (
    "strings"
    "time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
    StatusPending    ReservationStatus = "pending"
    StatusConfirmed  ReservationStatus = "confirmed"
    StatusCheckedIn  ReservationStatus = "checked_in"
    StatusCheckedOut ReservationStatus = "checked_out"
    StatusCancelled  ReservationStatus = "cancelled"
)

// ActiveStatuses lists the statuses that hold a room.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

// ParseReservationStatus normalises s and reports whether it is known.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
    st := ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
    switch st {
    case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
        return st, true
    }
    return "", false
}

// IsActive reports whether a reservation in this status blocks its room.
func (s ReservationStatus) IsActive() bool {
    return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// IsTerminal reports whether no further transition is possible.
func (s ReservationStatus) IsTerminal() bool {
    return s == StatusCheckedOut || s == StatusCancelled
}

var transitions = map[ReservationStatus][]ReservationStatus{
    StatusPending:   {StatusConfirmed, StatusCheckedIn, StatusCancelled},
    StatusConfirmed: {StatusCheckedIn, StatusCancelled},
    StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same status is always allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
    if s == next {
        return true
    }
    for _, allowed := range transitions[s] {
        if allowed == next {
            return true
        }
    }
    return false
}

// Reservation records a guest's stay in one room.  CheckOut is
// exclusive: the stay occupies [CheckIn, CheckOut).
//
// Fields:
//  ID        – reservations.reservation_id.
//  UserID    – guest (users.user_id).
//  RoomID    – booked room.
//  CheckIn   – first night, UTC midnight.
//  CheckOut  – departure day, UTC midnight.
//  Status    – lifecycle state.
//  CreatedAt – creation timestamp.
type Reservation struct {
    ID        uint64            `json:"id"`
    UserID    uint64            `json:"user_id"`
    RoomID    uint64            `json:"room_id"`
    CheckIn   time.Time         `json:"check_in"`
    CheckOut  time.Time         `json:"check_out"`
    Status    ReservationStatus `json:"status"`
    CreatedAt time.Time         `json:"created_at"`
}

// Stay returns the reservation's date interval.
func (r Reservation) Stay() Stay { return Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut} }
