// Package repository holds the MySQL backed stores.  The sentinel errors
// below let handlers and services tell "not found" and stale writes
// apart from storage failures.
package repository

import "errors"

// ErrRoomNotFound is returned when a room id or room number matches no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrReservationNotFound is returned when no reservation has the given id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrGuestNotFound is returned when a guest id, email or name matches no user.
var ErrGuestNotFound = errors.New("guest not found")

// ErrEmailExists is returned when inserting a user whose email is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a conditional update finds the row in a
// different state than expected, usually because another request moved
// the reservation first.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrTokenInvalid is returned for unknown, expired or revoked refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")
