package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/logger"
)

// RequestLog assigns a request id (reusing X-Request-ID when the client
// sent one) and logs one line per request once it has been served.
func RequestLog() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            status := c.Response().Status
            fields := []zap.Field{
                logger.RequestID(rid),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
            }
            if id, ok := UserID(c); ok {
                fields = append(fields, logger.UserID(id))
            }
            switch {
            case status >= 500:
                logger.L().Error("request", append(fields, zap.Error(err))...)
            case status >= 400:
                logger.L().Info("request", fields...)
            default:
                logger.L().Debug("request", fields...)
            }
            return nil
        }
    }
}
