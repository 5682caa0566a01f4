package lock

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lease taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Redis is a lease shared by every instance talking to the same Redis.
// A lease expires after TTL even if its holder dies.
type Redis struct {
    rdb     *redis.Client
    prefix  string
    ttl     time.Duration
    wait    time.Duration
    backoff time.Duration
}

// NewRedis returns a Redis locker.  wait bounds how long Acquire retries
// before giving up with ErrBusy.
func NewRedis(rdb *redis.Client, prefix string, ttl, wait time.Duration) *Redis {
    if prefix == "" {
        prefix = "lock:room"
    }
    if ttl <= 0 {
        ttl = 10 * time.Second
    }
    return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait, backoff: 25 * time.Millisecond}
}

func (r *Redis) key(roomID uint64) string { return fmt.Sprintf("%s:%d", r.prefix, roomID) }

func (r *Redis) Acquire(ctx context.Context, roomID uint64) (func(), error) {
    key := r.key(roomID)
    token := uuid.NewString()
    deadline := time.Now().Add(r.wait)
    for {
        ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
        if err != nil {
            return nil, err
        }
        if ok {
            return func() {
                // Release on a fresh context; the request may already be done.
                rctx, cancel := context.WithTimeout(context.Background(), time.Second)
                defer cancel()
                _ = releaseScript.Run(rctx, r.rdb, []string{key}, token).Err()
            }, nil
        }
        if time.Now().After(deadline) {
            return nil, ErrBusy
        }
        select {
        case <-ctx.Done():
            return nil, ErrBusy
        case <-time.After(r.backoff):
        }
    }
}
