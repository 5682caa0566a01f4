package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the user id, role and name in the context for UserID, Role
// and Name.  The secret must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return deny(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return deny(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
            }
            id, _ := claims.UserID() // validated by ParseAccessToken
            c.Set(ctxUserID, id)
            c.Set(ctxRole, claims.Role)
            c.Set(ctxName, claims.Name)
            return next(c)
        }
    }
}
