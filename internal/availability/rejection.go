package availability

import (
    "fmt"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Code identifies why a candidate stay was refused.
type Code string

const (
    CodeInvalidRange     Code = "InvalidRange"
    CodeRoomNotFound     Code = "RoomNotFound"
    CodeRoomNotAvailable Code = "RoomNotAvailable"
    CodeDateConflict     Code = "DateConflict"
)

// Conflict describes the reservation that blocked a candidate.
type Conflict struct {
    ReservationID uint64    `json:"id"`
    CheckIn       time.Time `json:"check_in"`
    CheckOut      time.Time `json:"check_out"`
}

// Rejection is returned by Check and Admit when a stay cannot be
// admitted.  Conflict is set only for CodeDateConflict.
type Rejection struct {
    Code     Code
    Message  string
    Conflict *Conflict
}

func (r *Rejection) Error() string { return string(r.Code) + ": " + r.Message }

// Is matches any Rejection carrying the same Code, so callers can write
// errors.Is(err, availability.ErrDateConflict).
func (r *Rejection) Is(target error) bool {
    t, ok := target.(*Rejection)
    return ok && t.Code == r.Code
}

// Sentinels for errors.Is comparisons.
var (
    ErrInvalidRange     = &Rejection{Code: CodeInvalidRange, Message: "check-out must be after check-in"}
    ErrRoomNotFound     = &Rejection{Code: CodeRoomNotFound, Message: "room not found"}
    ErrRoomNotAvailable = &Rejection{Code: CodeRoomNotAvailable, Message: "room is not available"}
    ErrDateConflict     = &Rejection{Code: CodeDateConflict, Message: "room already booked for the selected dates"}
)

func roomNotAvailable(status model.RoomStatus) *Rejection {
    return &Rejection{
        Code:    CodeRoomNotAvailable,
        Message: fmt.Sprintf("room is %s", status),
    }
}

func dateConflict(r model.Reservation) *Rejection {
    return &Rejection{
        Code: CodeDateConflict,
        Message: fmt.Sprintf("room already booked from %s to %s (reservation %d)",
            r.CheckIn.Format(model.DateLayout), r.CheckOut.Format(model.DateLayout), r.ID),
        Conflict: &Conflict{ReservationID: r.ID, CheckIn: r.CheckIn, CheckOut: r.CheckOut},
    }
}
