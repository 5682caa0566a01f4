package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/availability"
    "github.com/iliyamo/hotel-reservation/internal/lock"
    "github.com/iliyamo/hotel-reservation/internal/logger"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/service"
)

// Codes used in the error envelope besides the four availability codes.
const (
    codeInvalidRequest = "InvalidRequest"
    codeNotFound       = "NotFound"
    codeConflict       = "Conflict"
    codeUnauthorized   = "Unauthorized"
    codeBusy           = "Busy"
    codeInternal       = "InternalError"
)

// envelope is the single response shape of the API.
type envelope struct {
    Success  bool          `json:"success"`
    ID       uint64        `json:"id,omitempty"`
    Message  string        `json:"message,omitempty"`
    Code     string        `json:"code,omitempty"`
    Conflict *conflictBody `json:"conflict,omitempty"`
    Data     any           `json:"data,omitempty"`
}

type conflictBody struct {
    ID       uint64 `json:"id"`
    CheckIn  string `json:"check_in"`
    CheckOut string `json:"check_out"`
}

func ok(c echo.Context, status int, data any) error {
    return c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c echo.Context, status int, code, msg string) error {
    return c.JSON(status, envelope{Success: false, Code: code, Message: msg})
}

// writeError maps service, engine and repository errors onto the
// envelope.  Unknown errors are logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
    var rej *availability.Rejection
    if errors.As(err, &rej) {
        status := http.StatusBadRequest
        body := envelope{Success: false, Code: string(rej.Code), Message: rej.Message}
        if rej.Code == availability.CodeDateConflict {
            status = http.StatusConflict
            if rej.Conflict != nil {
                body.Conflict = &conflictBody{
                    ID:       rej.Conflict.ReservationID,
                    CheckIn:  rej.Conflict.CheckIn.Format(model.DateLayout),
                    CheckOut: rej.Conflict.CheckOut.Format(model.DateLayout),
                }
            }
        }
        return c.JSON(status, body)
    }

    switch {
    case errors.Is(err, service.ErrMissingFields),
        errors.Is(err, service.ErrInvalidDate),
        errors.Is(err, service.ErrInvalidStatus),
        errors.Is(err, service.ErrStatusOnly):
        return fail(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
    case errors.Is(err, service.ErrInvalidTransition),
        errors.Is(err, service.ErrReservationClosed):
        return fail(c, http.StatusConflict, codeConflict, err.Error())
    case errors.Is(err, repository.ErrGuestNotFound):
        return fail(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
    case errors.Is(err, repository.ErrReservationNotFound),
        errors.Is(err, repository.ErrRoomNotFound):
        return fail(c, http.StatusNotFound, codeNotFound, err.Error())
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, codeConflict, "reservation was changed by another request, reload and retry")
    case errors.Is(err, lock.ErrBusy):
        c.Response().Header().Set("Retry-After", "1")
        return fail(c, http.StatusServiceUnavailable, codeBusy, "room is busy, retry shortly")
    }

    logger.L().Error("request failed",
        zap.String("method", c.Request().Method),
        zap.String("path", c.Path()),
        logger.RequestID(c.Response().Header().Get(echo.HeaderXRequestID)),
        zap.Error(err))
    return fail(c, http.StatusInternalServerError, codeInternal, "internal error")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// today is the current calendar day in loc, as a UTC midnight.
func today(now time.Time, loc *time.Location) time.Time {
    if loc == nil {
        loc = time.UTC
    }
    y, m, d := now.In(loc).Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
