package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// StaffHandlers groups the handlers behind staff roles.
type StaffHandlers struct {
	Reservations *handler.ReservationHandler
	Rooms        *handler.RoomHandler
	Dashboards   *handler.DashboardHandler
}

// RegisterStaff registers the front desk and housekeeping endpoints under
// /v1.  Reservations and check-ins need admin or reception; the room
// board is also open to housekeeping.  cache wraps the dashboard reads
// and may be nil.
func RegisterStaff(e *echo.Echo, h StaffHandlers, jwtSecret string, cache echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(jwtSecret)

	desk := e.Group("/v1", auth, middleware.RequireRole(model.RoleAdmin, model.RoleReception))
	desk.GET("/reservations", h.Reservations.List)
	desk.POST("/reservations", h.Reservations.Create)
	desk.PUT("/reservations/:id", h.Reservations.Update)
	desk.DELETE("/reservations/:id", h.Reservations.Delete)
	desk.GET("/rooms/:id/availability", h.Reservations.Availability)
	desk.GET("/checkins/arrivals", h.Reservations.Arrivals)
	desk.POST("/checkins", h.Reservations.CheckIn)
	desk.POST("/checkouts", h.Reservations.CheckOut)

	board := e.Group("/v1", auth, middleware.RequireRole(model.RoleAdmin, model.RoleReception, model.RoleHousekeeping))
	board.GET("/rooms/status", h.Rooms.List)
	board.PATCH("/rooms/:id/status", h.Rooms.UpdateStatus)

	var stats []echo.MiddlewareFunc
	if cache != nil {
		stats = append(stats, cache)
	}
	board.GET("/stats/reception", h.Dashboards.Reception, stats...)
	board.GET("/stats/housekeeping", h.Dashboards.Housekeeping, stats...)
}
