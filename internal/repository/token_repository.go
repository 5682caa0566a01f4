package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// TokenRepo keeps SHA-256 hashes of issued refresh tokens.  Raw tokens
// never reach the database.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
    _, err := r.DB.ExecContext(ctx, q, userID, tokenHash, exp.UTC())
    return err
}

// ValidateRefresh returns the owner of a live token.  Unknown, revoked
// and expired tokens all yield ErrTokenInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
    const q = `SELECT user_id FROM refresh_tokens
               WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?
               LIMIT 1`
    var userID uint64
    err := r.DB.QueryRowContext(ctx, q, tokenHash, now.UTC()).Scan(&userID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrTokenInvalid
    }
    return userID, err
}

// RevokeByHash revokes a single session.  Revoking twice is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    return r.revoke(ctx, "token_hash = ?", tokenHash)
}

// RevokeAllForUser ends every session of userID.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    return r.revoke(ctx, "user_id = ?", userID)
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE "+where+" AND revoked_at IS NULL", arg)
    return err
}
