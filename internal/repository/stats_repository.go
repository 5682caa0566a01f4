package repository

import (
    "context"
    "database/sql"
    "math"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// StatsRepo runs the counting queries behind the staff and guest dashboards.
type StatsRepo struct {
    db   *sql.DB
    rows *ReservationRepo
}

// NewStatsRepo returns a StatsRepo bound to db.
func NewStatsRepo(db *sql.DB) *StatsRepo {
    return &StatsRepo{db: db, rows: NewReservationRepo(db)}
}

// ReceptionStats summarises the front desk's day.
type ReceptionStats struct {
    Arrivals      int `json:"arrivals"`
    Departures    int `json:"departures"`
    OccupiedRooms int `json:"occupiedRooms"`
    TotalRooms    int `json:"totalRooms"`
    Occupancy     int `json:"occupancy"` // percent, rounded
}

// HousekeepingStats summarises cleaning work for the day.
type HousekeepingStats struct {
    PendingTasks int `json:"pendingTasks"`
    Dirty        int `json:"dirty"`
    Maintenance  int `json:"maintenance"`
    CleanedToday int `json:"cleanedToday"`
    Efficiency   int `json:"efficiency"` // percent, rounded
}

// GuestDashboard lists one guest's stays relative to a day.
type GuestDashboard struct {
    Upcoming []ReservationRow `json:"upcoming"`
    Current  *ReservationRow  `json:"current"`
    History  []ReservationRow `json:"history"`
}

func percent(part, whole int) int {
    if whole <= 0 {
        return 0
    }
    return int(math.Round(float64(part) / float64(whole) * 100))
}

func (s *StatsRepo) count(ctx context.Context, q string, args ...any) (int, error) {
    var n sql.NullInt64
    if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
        return 0, err
    }
    return int(n.Int64), nil
}

// Reception counts arrivals and departures on day and the share of rooms
// held by a confirmed or checked_in stay that covers day.
func (s *StatsRepo) Reception(ctx context.Context, day time.Time) (ReceptionStats, error) {
    var st ReceptionStats
    d := day.Format(model.DateLayout)
    var err error
    if st.Arrivals, err = s.count(ctx,
        "SELECT COUNT(*) FROM reservations WHERE check_in_date=? AND status IN ('pending','confirmed')", d); err != nil {
        return st, err
    }
    if st.Departures, err = s.count(ctx,
        "SELECT COUNT(*) FROM reservations WHERE check_out_date=? AND status IN ('confirmed','checked_in')", d); err != nil {
        return st, err
    }
    if st.OccupiedRooms, err = s.count(ctx,
        `SELECT COUNT(DISTINCT room_id) FROM reservations
         WHERE check_in_date<=? AND check_out_date>? AND status IN ('confirmed','checked_in')`, d, d); err != nil {
        return st, err
    }
    if st.TotalRooms, err = s.count(ctx, "SELECT COUNT(*) FROM rooms"); err != nil {
        return st, err
    }
    st.Occupancy = percent(st.OccupiedRooms, st.TotalRooms)
    return st, nil
}

// Housekeeping counts dirty and maintenance rooms and the rooms returned
// to available on day.  Efficiency is cleaned / (dirty + cleaned).
func (s *StatsRepo) Housekeeping(ctx context.Context, day time.Time) (HousekeepingStats, error) {
    var st HousekeepingStats
    var dirty, maint sql.NullInt64
    err := s.db.QueryRowContext(ctx,
        "SELECT SUM(status='dirty'), SUM(status='maintenance') FROM rooms").Scan(&dirty, &maint)
    if err != nil {
        return st, err
    }
    st.Dirty, st.Maintenance = int(dirty.Int64), int(maint.Int64)
    st.PendingTasks = st.Dirty + st.Maintenance
    if st.CleanedToday, err = s.count(ctx,
        "SELECT COUNT(*) FROM room_status_logs WHERE status='available' AND DATE(changed_at)=?",
        day.Format(model.DateLayout)); err != nil {
        return st, err
    }
    st.Efficiency = percent(st.CleanedToday, st.Dirty+st.CleanedToday)
    return st, nil
}

// Guest builds the dashboard of userID: up to 20 upcoming stays, the
// stay covering day if any, and up to 50 past stays.
func (s *StatsRepo) Guest(ctx context.Context, userID uint64, day time.Time) (GuestDashboard, error) {
    d := day.Format(model.DateLayout)
    var (
        dash GuestDashboard
        err  error
    )
    dash.Upcoming, err = s.rows.queryRows(ctx,
        rowSelect+" WHERE r.user_id=? AND r.check_in_date>? AND r.status<>'cancelled' ORDER BY r.check_in_date ASC LIMIT 20",
        userID, d)
    if err != nil {
        return dash, err
    }
    current, err := s.rows.queryRows(ctx,
        rowSelect+` WHERE r.user_id=? AND r.check_in_date<=? AND r.check_out_date>?
                    AND r.status IN ('pending','confirmed','checked_in')
                    ORDER BY r.check_in_date DESC LIMIT 1`,
        userID, d, d)
    if err != nil {
        return dash, err
    }
    if len(current) > 0 {
        dash.Current = &current[0]
    }
    dash.History, err = s.rows.queryRows(ctx,
        rowSelect+" WHERE r.user_id=? AND r.check_out_date<=? ORDER BY r.check_out_date DESC LIMIT 50",
        userID, d)
    return dash, err
}
