package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
    t.Setenv("X_STR", "  value ")
    t.Setenv("X_BOOL", "Yes")
    t.Setenv("X_INT", "oops")
    t.Setenv("X_DUR", "250ms")
    t.Setenv("X_SET", "get, head,,")

    assert.Equal(t, "value", envStr("X_STR", "d"))
    assert.Equal(t, "d", envStr("X_MISSING", "d"))
    assert.True(t, envBool("X_BOOL", false))
    assert.Equal(t, 7, envInt("X_INT", 7))
    assert.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, envSet("X_SET", ""))
}

func TestRateLimitNormalize(t *testing.T) {
    c := RateLimitConfig{Capacity: 0, RefillTokens: -1, RefillInterval: 0, TTL: time.Second}.normalize()
    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, 1, c.RefillTokens)
    assert.Equal(t, time.Second, c.RefillInterval)
    assert.Equal(t, 5*time.Second, c.TTL)
}

func TestCacheDisabledByZeroTTL(t *testing.T) {
    t.Setenv("CACHE_TTL", "0s")
    assert.False(t, LoadCacheConfig().Enabled)
}

func TestRedisAddrFromHostPort(t *testing.T) {
    t.Setenv("REDIS_ADDR", "ignored:1")
    t.Setenv("REDIS_HOST", "cache")
    t.Setenv("REDIS_PORT", "6380")
    assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
}

func TestLockAndQueueDefaults(t *testing.T) {
    l := LoadLockConfig()
    assert.Equal(t, "local", l.Mode)
    assert.Equal(t, "lock:room", l.Prefix)

    q := LoadQueueConfig()
    assert.Empty(t, q.URL)
    assert.Equal(t, "reservation.events", q.Queue)
    assert.False(t, q.ConsumerEnabled)
}

func TestLoad(t *testing.T) {
    for k, v := range map[string]string{
        "APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "hotel", "DB_HOST": "db",
        "DB_PORT": "3306", "DB_NAME": "hotel", "JWT_SECRET": "s",
        "ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7",
        "HOTEL_TIMEZONE": "UTC",
    } {
        t.Setenv(k, v)
    }
    cfg := Load()
    assert.Equal(t, 15, cfg.AccessTTLMin)
    assert.Equal(t, 10, cfg.BcryptCost)
    assert.Equal(t, time.UTC, cfg.HotelLocation)
}
