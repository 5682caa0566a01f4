package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/logger"
)

// tokenBucket refills `refill` tokens every `interval_ms` up to
// `capacity` and takes one per request.  Returns {allowed, tokens, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local cap, step, every, ttl = tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local now = tonumber(ARGV[1])
local h = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local left, since = tonumber(h[1]) or cap, tonumber(h[2]) or now

local n = math.floor(math.max(0, now - since) / every)
if n > 0 then
  left = math.min(cap, left + n * step)
  since = since + n * every
end

local ok, wait = 0, 0
if left >= 1 then
  ok, left = 1, left - 1
else
  wait = math.max(0, every - (now - since))
end
redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', since)
redis.call('EXPIRE', KEYS[1], ttl)
return { ok, left, wait }
`)

// NewTokenBucket limits requests per key with a token bucket kept in
// Redis, so every instance shares the same budget.  Redis errors fail
// open: the request is served and the error logged.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(vals) != 3 {
                logger.L().Warn("ratelimit: script failed", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "success":     false,
                    "code":        "RateLimited",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// buildRateKey composes the bucket key from the parts named in
// KeyStrategy ("ip", "user", "route", joined with "_").  Unknown or empty
// strategies key on all three.  Mounted before JWTAuth the user part is
// always "anon".
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    for _, p := range rateKeyParts(cfg.KeyStrategy) {
        switch p {
        case "ip":
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            parts = append(parts, "ip", ip)
        case "user":
            parts = append(parts, "user", subject(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        }
    }
    return strings.Join(parts, ":")
}

func rateKeyParts(strategy string) []string {
    var out []string
    for _, p := range strings.Split(strings.ToLower(strategy), "_") {
        if p == "ip" || p == "user" || p == "route" {
            out = append(out, p)
        }
    }
    if len(out) == 0 {
        return []string{"ip", "user", "route"}
    }
    return out
}
