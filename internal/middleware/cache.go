package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/logger"
)

// cachedResponse is what a cache entry holds.  Only the content type is
// replayed; other headers belong to the original request.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// bodyRecorder copies the response body as it is written, giving up once
// it exceeds limit bytes.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    body     bytes.Buffer
    limit    int
    overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    switch {
    case w.overflow:
    case w.limit > 0 && w.body.Len()+len(b) > w.limit:
        w.overflow = true
        w.body.Reset()
    default:
        w.body.Write(b)
    }
    return w.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts of the request selected by KeyStrategy.
// Strategies ending in "_user" add the caller's id, for per-user pages.
// Path params always take part.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    strategy := strings.ToLower(cfg.KeyStrategy)
    perUser := strings.HasSuffix(strategy, "_user")
    base := strings.TrimSuffix(strategy, "_user")

    var b strings.Builder
    if strings.HasPrefix(base, "method_") {
        b.WriteString(c.Request().Method + " ")
    }
    b.WriteString(c.Path())
    if base != "route" && base != "method_route" {
        b.WriteString("?" + c.Request().URL.RawQuery)
    }
    for _, v := range c.ParamValues() {
        b.WriteString("|p=" + v)
    }
    if perUser {
        b.WriteString("|u=" + subject(c))
    }
    return fmt.Sprintf("%s:%x", cfg.Prefix, sha1.Sum([]byte(b.String())))
}

// NewRedisCache serves repeated reads of slow aggregate endpoints (the
// dashboards) from Redis for cfg.TTL.  Only 200 responses that fit in
// MaxBodyBytes are stored.  A request with "Cache-Control: no-cache"
// skips the lookup and refreshes the entry.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil || cfg.TTL <= 0 {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !cfg.Methods[strings.ToUpper(req.Method)] {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c)

            if !strings.Contains(req.Header.Get("Cache-Control"), "no-cache") {
                if hit, found := lookup(req.Context(), rdb, key); found {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }
            entry := cachedResponse{
                Status:      rec.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        rec.body.Bytes(),
            }
            store(context.WithoutCancel(req.Context()), rdb, key, entry, cfg)
            return nil
        }
    }
}

func lookup(ctx context.Context, rdb *redis.Client, key string) (cachedResponse, bool) {
    raw, err := rdb.Get(ctx, key).Bytes()
    if err != nil {
        if !errors.Is(err, redis.Nil) {
            logger.L().Warn("cache: get failed", zap.String("key", key), zap.Error(err))
        }
        return cachedResponse{}, false
    }
    var hit cachedResponse
    if err := json.Unmarshal(raw, &hit); err != nil || hit.Status == 0 {
        return cachedResponse{}, false
    }
    return hit, true
}

func store(ctx context.Context, rdb *redis.Client, key string, entry cachedResponse, cfg config.CacheConfig) {
    raw, err := json.Marshal(entry)
    if err != nil {
        return
    }
    if err := rdb.Set(ctx, key, raw, cfg.TTL).Err(); err != nil {
        logger.L().Warn("cache: set failed", zap.String("key", key), zap.Error(err))
    }
}
