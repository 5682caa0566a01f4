package service

import "errors"

// Input and lifecycle errors.  Handlers map these to HTTP 400 or 409;
// availability rejections and repository sentinels pass through unchanged.
var (
    ErrMissingFields     = errors.New("guest, room, check-in and check-out are required")
    ErrInvalidDate       = errors.New("dates must use the YYYY-MM-DD format")
    ErrInvalidStatus     = errors.New("unknown or disallowed reservation status")
    ErrInvalidTransition = errors.New("reservation status transition not allowed")
    ErrReservationClosed = errors.New("cancelled or checked-out reservations cannot be edited")
    ErrStatusOnly        = errors.New("guest, room and dates cannot change together with check-in, check-out or cancellation")
)
