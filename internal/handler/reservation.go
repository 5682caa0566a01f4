package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/service"
)

// ReservationService is the part of *service.ReservationService the
// reservation and check-in endpoints call.
type ReservationService interface {
    Create(ctx context.Context, in service.ReservationInput) (*model.Reservation, error)
    Update(ctx context.Context, id uint64, in service.ReservationInput) (*model.Reservation, error)
    Delete(ctx context.Context, id uint64) error
    CheckIn(ctx context.Context, id, staffID uint64) (*model.Reservation, error)
    CheckOut(ctx context.Context, id, staffID uint64) (*model.Reservation, error)
    Availability(ctx context.Context, q service.AvailabilityQuery) error
}

// ReservationLister provides the read side for reception screens.
type ReservationLister interface {
    List(ctx context.Context) ([]repository.ReservationRow, error)
    Arrivals(ctx context.Context, day time.Time) ([]repository.ReservationRow, error)
}

// ReservationHandler serves /v1/reservations, /v1/checkins and
// /v1/checkouts.  Role checks happen in the router.
type ReservationHandler struct {
    svc  ReservationService
    rows ReservationLister
    loc  *time.Location
    now  func() time.Time
}

// NewReservationHandler wires the handler.  loc decides which calendar
// day counts as today for arrivals.
func NewReservationHandler(svc ReservationService, rows ReservationLister, loc *time.Location) *ReservationHandler {
    if svc == nil || rows == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{svc: svc, rows: rows, loc: loc, now: time.Now}
}

// reservationReq is the body of create and update.  The guest may be
// named by user_id, email or display name and the room by id or number.
type reservationReq struct {
    UserID   uint64 `json:"user_id"`
    Email    string `json:"email" validate:"omitempty,email"`
    Guest    string `json:"guest" validate:"max=255"`
    RoomID   uint64 `json:"room_id"`
    Room     string `json:"room" validate:"max=32"`
    CheckIn  string `json:"checkIn"`
    CheckOut string `json:"checkOut"`
    Status   string `json:"status" validate:"omitempty,oneof=pending confirmed checked_in checked_out cancelled"`
}

func (r reservationReq) input() service.ReservationInput {
    return service.ReservationInput{
        UserID:   r.UserID,
        Email:    r.Email,
        Guest:    r.Guest,
        RoomID:   r.RoomID,
        Room:     r.Room,
        CheckIn:  r.CheckIn,
        CheckOut: r.CheckOut,
        Status:   r.Status,
    }
}

// List handles GET /v1/reservations, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
    rows, err := h.rows.List(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, rows)
}

// Create handles POST /v1/reservations.  On success the body is
// {"success": true, "id": <reservation id>}.
func (h *ReservationHandler) Create(c echo.Context) error {
    var req reservationReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    res, err := h.svc.Create(c.Request().Context(), req.input())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, envelope{Success: true, ID: res.ID, Message: "reservation created"})
}

// Update handles PUT /v1/reservations/:id.  Fields left out keep their
// stored values.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "valid id required")
    }
    var req reservationReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    res, err := h.svc.Update(c.Request().Context(), id, req.input())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, ID: res.ID, Message: "reservation updated", Data: res})
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "valid id required")
    }
    if err := h.svc.Delete(c.Request().Context(), id); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, ID: id, Message: "reservation deleted"})
}

// Availability handles GET /v1/rooms/:id/availability?checkIn=&checkOut=&exclude=.
// An admissible stay answers 200; a refused one answers with the same
// status and code a create would get.
func (h *ReservationHandler) Availability(c echo.Context) error {
    roomID, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "valid id required")
    }
    var q struct {
        CheckIn  string `query:"checkIn"`
        CheckOut string `query:"checkOut"`
        Exclude  uint64 `query:"exclude"`
    }
    if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "invalid query")
    }
    err := h.svc.Availability(c.Request().Context(), service.AvailabilityQuery{
        RoomID:    roomID,
        CheckIn:   q.CheckIn,
        CheckOut:  q.CheckOut,
        ExcludeID: q.Exclude,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, ID: roomID, Message: "available"})
}

// Arrivals handles GET /v1/checkins/arrivals: pending and confirmed
// stays starting today in the hotel's time zone.
func (h *ReservationHandler) Arrivals(c echo.Context) error {
    rows, err := h.rows.Arrivals(c.Request().Context(), today(h.now(), h.loc))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, rows)
}

type checkInReq struct {
    ReservationID uint64 `json:"reservation_id" validate:"required"`
    StaffUserID   uint64 `json:"staff_user_id"`
}

// CheckIn handles POST /v1/checkins.  staff_user_id defaults to the
// caller.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
    var req checkInReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    staff := req.StaffUserID
    if staff == 0 {
        staff, _ = middleware.UserID(c)
    }
    res, err := h.svc.CheckIn(c.Request().Context(), req.ReservationID, staff)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, ID: res.ID, Message: "checked in", Data: res})
}

type checkOutReq struct {
    ReservationID uint64 `json:"reservation_id" validate:"required"`
}

// CheckOut handles POST /v1/checkouts.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
    var req checkOutReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    staff, _ := middleware.UserID(c)
    res, err := h.svc.CheckOut(c.Request().Context(), req.ReservationID, staff)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, ID: res.ID, Message: "checked out", Data: res})
}
