package availability_test

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hotel-reservation/internal/availability"
    "github.com/iliyamo/hotel-reservation/internal/availability/availabilitytest"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

func day(t *testing.T, s string) model.Stay {
    t.Helper()
    var in, out string
    _, err := fmt.Sscanf(s, "%s %s", &in, &out)
    require.NoError(t, err)
    ci, err := model.ParseDate(in)
    require.NoError(t, err)
    co, err := model.ParseDate(out)
    require.NoError(t, err)
    return model.Stay{CheckIn: ci, CheckOut: co}
}

func seed(t *testing.T, st *availabilitytest.Store, id, room uint64, stay string, status model.ReservationStatus) {
    t.Helper()
    s := day(t, stay)
    st.Put(model.Reservation{ID: id, UserID: 1, RoomID: room, CheckIn: s.CheckIn, CheckOut: s.CheckOut, Status: status})
}

func TestOverlaps(t *testing.T) {
    cases := []struct {
        a, b string
        want bool
    }{
        {"2024-01-01 2024-01-05", "2024-01-05 2024-01-10", false},
        {"2024-01-05 2024-01-10", "2024-01-01 2024-01-05", false},
        {"2024-03-01 2024-03-04", "2024-03-01 2024-03-04", true},
        {"2024-06-10 2024-06-15", "2024-06-12 2024-06-20", true},
        {"2024-06-10 2024-06-15", "2024-06-05 2024-06-12", true},
        {"2024-06-10 2024-06-15", "2024-06-11 2024-06-12", true},
        {"2024-06-11 2024-06-12", "2024-06-10 2024-06-15", true},
        {"2024-06-10 2024-06-15", "2024-06-16 2024-06-20", false},
    }
    for _, tc := range cases {
        got := availability.Overlaps(day(t, tc.a), day(t, tc.b))
        assert.Equal(t, tc.want, got, "%s vs %s", tc.a, tc.b)
    }
}

func TestCheckRoomNotAvailableIgnoresDates(t *testing.T) {
    ctx := context.Background()
    st := availabilitytest.New()
    for i, status := range []model.RoomStatus{model.RoomOccupied, model.RoomDirty, model.RoomMaintenance} {
        room := uint64(i + 1)
        st.SetRoom(room, status)
        for _, stay := range []string{"2024-01-01 2024-01-02", "2030-12-01 2031-01-15"} {
            err := availability.Check(ctx, st, availability.Candidate{RoomID: room, Stay: day(t, stay)})
            assert.ErrorIs(t, err, availability.ErrRoomNotAvailable, "room %s %s", status, stay)
        }
    }
}

func TestCheckInvalidRangeBeforeStorage(t *testing.T) {
    ctx := context.Background()
    st := availabilitytest.New()
    st.FailReads = errors.New("must not be read")

    for _, stay := range []string{"2024-01-05 2024-01-05", "2024-01-05 2024-01-01"} {
        c := availability.Candidate{RoomID: 99, Stay: day(t, stay)}
        assert.ErrorIs(t, availability.Check(ctx, st, c), availability.ErrInvalidRange)
        written := false
        err := availability.Admit(ctx, st, c, func(context.Context, availability.Tx) error {
            written = true
            return nil
        })
        assert.ErrorIs(t, err, availability.ErrInvalidRange)
        assert.False(t, written)
    }
    assert.Zero(t, st.Reads)
}

func TestCheckRoomNotFound(t *testing.T) {
    st := availabilitytest.New()
    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 5, Stay: day(t, "2024-01-01 2024-01-02")})
    assert.ErrorIs(t, err, availability.ErrRoomNotFound)
}

func TestCheckStorageErrorIsNotRejection(t *testing.T) {
    st := availabilitytest.New()
    boom := errors.New("connection reset")
    st.FailReads = boom
    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, "2024-01-01 2024-01-02")})
    require.ErrorIs(t, err, boom)
    var rej *availability.Rejection
    assert.False(t, errors.As(err, &rej))
    assert.Equal(t, "error", availability.Outcome(err))
}

func TestCheckBackToBackAdmitted(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    seed(t, st, 1, 1, "2024-01-01 2024-01-05", model.StatusConfirmed)

    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, "2024-01-05 2024-01-10")})
    assert.NoError(t, err)
    assert.Equal(t, "admitted", availability.Outcome(err))
}

func TestCheckDuplicateRejected(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    seed(t, st, 4, 1, "2024-03-01 2024-03-04", model.StatusPending)

    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, "2024-03-01 2024-03-04")})
    var rej *availability.Rejection
    require.True(t, errors.As(err, &rej))
    assert.Equal(t, availability.CodeDateConflict, rej.Code)
    require.NotNil(t, rej.Conflict)
    assert.Equal(t, uint64(4), rej.Conflict.ReservationID)
    assert.Equal(t, day(t, "2024-03-01 2024-03-04").CheckIn, rej.Conflict.CheckIn)
    assert.Equal(t, day(t, "2024-03-01 2024-03-04").CheckOut, rej.Conflict.CheckOut)
    assert.Equal(t, "DateConflict", availability.Outcome(err))
}

func TestCheckExcludesSelf(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(12, model.RoomAvailable)
    seed(t, st, 7, 12, "2024-05-01 2024-05-03", model.StatusConfirmed)

    c := availability.Candidate{RoomID: 12, Stay: day(t, "2024-05-02 2024-05-04"), ExcludeID: 7}
    assert.NoError(t, availability.Check(context.Background(), st, c))

    c.ExcludeID = 0
    assert.ErrorIs(t, availability.Check(context.Background(), st, c), availability.ErrDateConflict)
}

func TestCheckInactiveReservationsNeverBlock(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    seed(t, st, 1, 1, "2024-02-01 2024-02-05", model.StatusCancelled)
    seed(t, st, 2, 1, "2024-02-01 2024-02-05", model.StatusCheckedOut)

    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, "2024-02-01 2024-02-05")})
    assert.NoError(t, err)
}

// unfilteredStore returns every reservation of the room, ignoring both
// status and excludeID.
type unfilteredStore []model.Reservation

func (unfilteredStore) RoomStatus(context.Context, uint64) (model.RoomStatus, bool, error) {
    return model.RoomAvailable, true, nil
}

func (u unfilteredStore) ActiveReservations(context.Context, uint64, uint64) ([]model.Reservation, error) {
    return u, nil
}

func TestCheckFiltersWhatTheStoreReturns(t *testing.T) {
    s := day(t, "2024-02-01 2024-02-05")
    st := unfilteredStore{
        {ID: 1, RoomID: 1, CheckIn: s.CheckIn, CheckOut: s.CheckOut, Status: model.StatusCancelled},
        {ID: 2, RoomID: 1, CheckIn: s.CheckIn, CheckOut: s.CheckOut, Status: model.StatusConfirmed},
    }
    assert.NoError(t, availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: s, ExcludeID: 2}))
    assert.ErrorIs(t, availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: s}),
        availability.ErrDateConflict)
}

func TestCheckPartialOverlapsRejected(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    seed(t, st, 1, 1, "2024-06-10 2024-06-15", model.StatusCheckedIn)

    for _, stay := range []string{"2024-06-12 2024-06-20", "2024-06-05 2024-06-12"} {
        err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, stay)})
        assert.ErrorIs(t, err, availability.ErrDateConflict, stay)
    }
}

func TestCheckOtherRoomsIgnored(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    st.SetRoom(2, model.RoomAvailable)
    seed(t, st, 1, 2, "2024-06-10 2024-06-15", model.StatusConfirmed)

    err := availability.Check(context.Background(), st, availability.Candidate{RoomID: 1, Stay: day(t, "2024-06-10 2024-06-15")})
    assert.NoError(t, err)
}

func TestAdmitWriteErrorRollsBack(t *testing.T) {
    st := availabilitytest.New()
    st.SetRoom(1, model.RoomAvailable)
    boom := errors.New("insert failed")

    s := day(t, "2024-01-01 2024-01-03")
    err := availability.Admit(context.Background(), st, availability.Candidate{RoomID: 1, Stay: s},
        func(ctx context.Context, tx availability.Tx) error {
            r := &model.Reservation{RoomID: 1, UserID: 1, CheckIn: s.CheckIn, CheckOut: s.CheckOut, Status: model.StatusPending}
            if err := tx.InsertReservation(ctx, r); err != nil {
                return err
            }
            return boom
        })
    assert.ErrorIs(t, err, boom)
    assert.Empty(t, st.All())
}

// Many goroutines race for random stays on a handful of rooms; whatever
// gets admitted must never overlap another active stay on the same room.
func TestAdmitConcurrentNeverDoubleBooks(t *testing.T) {
    ctx := context.Background()
    st := availabilitytest.New()
    for room := uint64(1); room <= 3; room++ {
        st.SetRoom(room, model.RoomAvailable)
    }
    base, err := model.ParseDate("2024-07-01")
    require.NoError(t, err)

    var (
        wg       sync.WaitGroup
        admitted int
        mu       sync.Mutex
    )
    for i := 0; i < 200; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            room := uint64(i%3 + 1)
            start := base.AddDate(0, 0, (i*7)%20)
            stay := model.Stay{CheckIn: start, CheckOut: start.AddDate(0, 0, 1+i%4)}
            err := availability.Admit(ctx, st, availability.Candidate{RoomID: room, Stay: stay},
                func(ctx context.Context, tx availability.Tx) error {
                    return tx.InsertReservation(ctx, &model.Reservation{
                        UserID: uint64(i), RoomID: room,
                        CheckIn: stay.CheckIn, CheckOut: stay.CheckOut,
                        Status: model.StatusConfirmed,
                    })
                })
            if err == nil {
                mu.Lock()
                admitted++
                mu.Unlock()
                return
            }
            assert.ErrorIs(t, err, availability.ErrDateConflict)
        }(i)
    }
    wg.Wait()

    all := st.All()
    require.Len(t, all, admitted)
    require.NotZero(t, admitted)
    for i := range all {
        for j := i + 1; j < len(all); j++ {
            a, b := all[i], all[j]
            if a.RoomID != b.RoomID {
                continue
            }
            assert.False(t, availability.Overlaps(a.Stay(), b.Stay()),
                "reservations %d and %d overlap on room %d", a.ID, b.ID, a.RoomID)
        }
    }
}
