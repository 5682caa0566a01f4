package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "user_id, name, email, password_hash, role, created_at"

func scanUser(s scanner) (model.User, error) {
    var u model.User
    err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
    return u, err
}

// Create inserts a user with a bcrypt hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
        strings.TrimSpace(name), email, hash, role)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userCols+" FROM users WHERE user_id=? LIMIT 1", id))
}

// ResolveGuest turns whatever reception typed into a user id.  A positive
// id must exist.  Without one the email is tried, and when it matches
// nobody the exact display name is tried next.  ErrGuestNotFound when
// nothing matches.
func (r *UserRepo) ResolveGuest(ctx context.Context, id uint64, email, name string) (uint64, error) {
    if id > 0 {
        return r.lookupUserID(ctx, "SELECT user_id FROM users WHERE user_id=? LIMIT 1", id)
    }
    if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
        uid, err := r.lookupUserID(ctx, "SELECT user_id FROM users WHERE email=? LIMIT 1", email)
        if !errors.Is(err, ErrGuestNotFound) {
            return uid, err
        }
    }
    if name = strings.TrimSpace(name); name != "" {
        return r.lookupUserID(ctx, "SELECT user_id FROM users WHERE name=? ORDER BY user_id LIMIT 1", name)
    }
    return 0, ErrGuestNotFound
}

func (r *UserRepo) lookupUserID(ctx context.Context, q string, arg any) (uint64, error) {
    var uid uint64
    err := r.DB.QueryRowContext(ctx, q, arg).Scan(&uid)
    if err == sql.ErrNoRows {
        return 0, ErrGuestNotFound
    }
    return uid, err
}
