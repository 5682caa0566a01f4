package middleware

// identity.go holds the context keys JWTAuth fills in and the accessors
// handlers use to read them back.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
    ctxName   = "name"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role, or "" when anonymous.
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// Name returns the display name carried in the token, if any.
func Name(c echo.Context) string {
    n, _ := c.Get(ctxName).(string)
    return n
}

// subject is the identity used in rate limit and cache keys.
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}

// deny writes the error envelope shared with the handlers.
func deny(c echo.Context, status int, code, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "code": code, "message": msg})
}
