package config

import "time"

// LockConfig selects the per-room lease taken before the admission
// transaction.  Mode is "none", "local" or "redis"; redis falls back to
// local when no Redis client is available.
type LockConfig struct {
    Mode   string
    Prefix string
    TTL    time.Duration
    Wait   time.Duration
}

func LoadLockConfig() LockConfig {
    return LockConfig{
        Mode:   envStr("ROOM_LOCK_MODE", "local"),
        Prefix: envStr("ROOM_LOCK_PREFIX", "lock:room"),
        TTL:    envDur("ROOM_LOCK_TTL", 10*time.Second),
        Wait:   envDur("ROOM_LOCK_WAIT", 3*time.Second),
    }
}
