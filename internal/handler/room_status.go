package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/logger"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomStore is what the housekeeping board needs from *repository.RoomRepo.
type RoomStore interface {
    ListWithHotel(ctx context.Context) ([]model.Room, error)
    UpdateStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error
}

type RoomHandler struct {
    rooms RoomStore
}

func NewRoomHandler(rooms RoomStore) *RoomHandler { return &RoomHandler{rooms: rooms} }

// List handles GET /v1/rooms/status.
func (h *RoomHandler) List(c echo.Context) error {
    rooms, err := h.rooms.ListWithHotel(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, rooms)
}

type roomStatusReq struct {
    Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /v1/rooms/:id/status.
func (h *RoomHandler) UpdateStatus(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "valid id required")
    }
    var req roomStatusReq
    if valid, err := bindValid(c, &req); !valid {
        return err
    }
    status, known := model.ParseRoomStatus(req.Status)
    if !known {
        return fail(c, http.StatusBadRequest, codeInvalidRequest, "status must be available, occupied, dirty or maintenance")
    }
    if err := h.rooms.UpdateStatus(c.Request().Context(), id, status); err != nil {
        return writeError(c, err)
    }
    logger.L().Info("room status changed", logger.RoomID(id), zap.String("status", string(status)))
    return c.JSON(http.StatusOK, envelope{Success: true, ID: id, Message: "room status updated"})
}
