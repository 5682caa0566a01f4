package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/repository"
)

// StatsStore is implemented by *repository.StatsRepo.
type StatsStore interface {
    Reception(ctx context.Context, day time.Time) (repository.ReceptionStats, error)
    Housekeeping(ctx context.Context, day time.Time) (repository.HousekeepingStats, error)
    Guest(ctx context.Context, userID uint64, day time.Time) (repository.GuestDashboard, error)
}

// DashboardHandler serves the reception, housekeeping and guest summaries.
type DashboardHandler struct {
    stats StatsStore
    loc   *time.Location
    now   func() time.Time
}

func NewDashboardHandler(stats StatsStore, loc *time.Location) *DashboardHandler {
    return &DashboardHandler{stats: stats, loc: loc, now: time.Now}
}

// Reception handles GET /v1/stats/reception.
func (h *DashboardHandler) Reception(c echo.Context) error {
    s, err := h.stats.Reception(c.Request().Context(), today(h.now(), h.loc))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, s)
}

// Housekeeping handles GET /v1/stats/housekeeping.
func (h *DashboardHandler) Housekeeping(c echo.Context) error {
    s, err := h.stats.Housekeeping(c.Request().Context(), today(h.now(), h.loc))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, s)
}

// Guest handles GET /v1/guest/dashboard for the authenticated guest.
func (h *DashboardHandler) Guest(c echo.Context) error {
    uid, found := middleware.UserID(c)
    if !found {
        return fail(c, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
    }
    d, err := h.stats.Guest(c.Request().Context(), uid, today(h.now(), h.loc))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, d)
}
