package repository

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func countRow(n int) *sqlmock.Rows { return sqlmock.NewRows([]string{"c"}).AddRow(n) }

func TestReceptionStats(t *testing.T) {
    db, mock := newMock(t)
    day := date(t, "2025-03-10")
    mock.ExpectQuery(q("WHERE check_in_date=?")).WithArgs("2025-03-10").WillReturnRows(countRow(4))
    mock.ExpectQuery(q("WHERE check_out_date=?")).WithArgs("2025-03-10").WillReturnRows(countRow(2))
    mock.ExpectQuery(q("COUNT(DISTINCT room_id)")).WithArgs("2025-03-10", "2025-03-10").WillReturnRows(countRow(3))
    mock.ExpectQuery(q("SELECT COUNT(*) FROM rooms")).WillReturnRows(countRow(8))

    st, err := NewStatsRepo(db).Reception(context.Background(), day)
    require.NoError(t, err)
    assert.Equal(t, ReceptionStats{Arrivals: 4, Departures: 2, OccupiedRooms: 3, TotalRooms: 8, Occupancy: 38}, st)
}

func TestHousekeepingStats(t *testing.T) {
    db, mock := newMock(t)
    mock.ExpectQuery(q("FROM rooms")).
        WillReturnRows(sqlmock.NewRows([]string{"dirty", "maint"}).AddRow(3, 1))
    mock.ExpectQuery(q("FROM room_status_logs")).WithArgs("2025-03-10").WillReturnRows(countRow(1))

    st, err := NewStatsRepo(db).Housekeeping(context.Background(), date(t, "2025-03-10"))
    require.NoError(t, err)
    assert.Equal(t, HousekeepingStats{PendingTasks: 4, Dirty: 3, Maintenance: 1, CleanedToday: 1, Efficiency: 25}, st)
}

func TestHousekeepingStatsEmpty(t *testing.T) {
    db, mock := newMock(t)
    mock.ExpectQuery(q("FROM rooms")).
        WillReturnRows(sqlmock.NewRows([]string{"dirty", "maint"}).AddRow(nil, nil))
    mock.ExpectQuery(q("FROM room_status_logs")).WillReturnRows(countRow(0))

    st, err := NewStatsRepo(db).Housekeeping(context.Background(), date(t, "2025-03-10"))
    require.NoError(t, err)
    assert.Zero(t, st.Efficiency)
    assert.Zero(t, st.PendingTasks)
}
