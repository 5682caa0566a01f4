package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// RegisterGuest registers endpoints for signed-in guests.  A guest only
// ever sees their own reservations; the user id comes from the token.
func RegisterGuest(e *echo.Echo, d *handler.DashboardHandler, jwtSecret string) {
	g := e.Group("/v1/guest", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleGuest))
	g.GET("/dashboard", d.Guest)
}
