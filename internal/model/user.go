package model

import "time"

// Role names stored in users.role.  Staff roles administer
// reservations; guests only see their own dashboard.
const (
    RoleAdmin        = "admin"
    RoleReception    = "reception"
    RoleHousekeeping = "housekeeping"
    RoleGuest        = "guest"
)

// User represents a row of the `users` table.  Guests and staff share
// the table and are told apart by Role.
//
// Fields:
//  ID           – users.user_id.
//  Name         – display name, also accepted when resolving a guest.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the Role* constants.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.user_id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
}

// IsStaff reports whether the user may act on other guests' reservations.
func (u User) IsStaff() bool {
    return u.Role == RoleAdmin || u.Role == RoleReception || u.Role == RoleHousekeeping
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
