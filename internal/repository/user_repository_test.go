package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestResolveGuestOrder(t *testing.T) {
    db, mock := newMock(t)
    repo := NewUserRepo(db)
    ctx := context.Background()

    mock.ExpectQuery(q("WHERE user_id=?")).WithArgs(7).
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
    mock.ExpectQuery(q("WHERE email=?")).WithArgs("ana@example.com").
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(3))
    mock.ExpectQuery(q("WHERE name=?")).WithArgs("Ana Lopez").
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

    id, err := repo.ResolveGuest(ctx, 7, "ignored@example.com", "")
    require.NoError(t, err)
    assert.Equal(t, uint64(7), id)

    id, err = repo.ResolveGuest(ctx, 0, " Ana@Example.com ", "Ana Lopez")
    require.NoError(t, err)
    assert.Equal(t, uint64(3), id)

    _, err = repo.ResolveGuest(ctx, 0, "", "Ana Lopez")
    assert.ErrorIs(t, err, ErrGuestNotFound)

    _, err = repo.ResolveGuest(ctx, 0, "", "")
    assert.ErrorIs(t, err, ErrGuestNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveGuestFallsBackToNameWhenEmailMisses(t *testing.T) {
    db, mock := newMock(t)
    repo := NewUserRepo(db)

    mock.ExpectQuery(q("WHERE email=?")).WithArgs("old@example.com").
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
    mock.ExpectQuery(q("WHERE name=?")).WithArgs("Ana Lopez").
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9))

    id, err := repo.ResolveGuest(context.Background(), 0, "old@example.com", "Ana Lopez")
    require.NoError(t, err)
    assert.Equal(t, uint64(9), id)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
    db, mock := newMock(t)
    repo := NewUserRepo(db)
    ctx := context.Background()

    mock.ExpectExec(q("INSERT INTO users")).
        WithArgs("Ana", "ana@example.com", sqlmock.AnyArg(), "guest").
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectExec(q("INSERT INTO users")).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

    id, err := repo.Create(ctx, " Ana ", "ANA@example.com", "secret-pass", "guest", 4)
    require.NoError(t, err)
    assert.Equal(t, uint64(12), id)

    _, err = repo.Create(ctx, "Ana", "ana@example.com", "secret-pass", "guest", 4)
    assert.ErrorIs(t, err, ErrEmailExists)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefresh(t *testing.T) {
    db, mock := newMock(t)
    repo := NewTokenRepo(db)
    now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

    mock.ExpectQuery(q("FROM refresh_tokens")).WithArgs("live", now).
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(5))
    mock.ExpectQuery(q("FROM refresh_tokens")).WithArgs("gone", now).
        WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

    uid, err := repo.ValidateRefresh(context.Background(), "live", now)
    require.NoError(t, err)
    assert.Equal(t, uint64(5), uid)

    _, err = repo.ValidateRefresh(context.Background(), "gone", now)
    assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevoke(t *testing.T) {
    db, mock := newMock(t)
    repo := NewTokenRepo(db)

    mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL")).
        WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(q("WHERE user_id = ? AND revoked_at IS NULL")).
        WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 3))

    require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
    require.NoError(t, repo.RevokeAllForUser(context.Background(), 5))
    require.NoError(t, mock.ExpectationsWereMet())
}
