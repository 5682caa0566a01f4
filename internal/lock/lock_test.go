package lock

import (
    "context"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr, err := miniredis.Run()
    require.NoError(t, err)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() {
        client.Close()
        mr.Close()
    })
    return mr, client
}

func exclusive(t *testing.T, l RoomLocker) {
    t.Helper()
    var (
        inside  int32
        maxSeen int32
        wg      sync.WaitGroup
    )
    for i := 0; i < 20; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            release, err := l.Acquire(ctx, 1)
            if !assert.NoError(t, err) {
                return
            }
            n := atomic.AddInt32(&inside, 1)
            for {
                m := atomic.LoadInt32(&maxSeen)
                if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
                    break
                }
            }
            time.Sleep(time.Millisecond)
            atomic.AddInt32(&inside, -1)
            release()
        }()
    }
    wg.Wait()
    assert.Equal(t, int32(1), maxSeen)
}

func TestLocalExclusive(t *testing.T) {
    l := NewLocal()
    exclusive(t, l)
    assert.Zero(t, l.held())
}

func TestLocalContextCancel(t *testing.T) {
    l := NewLocal()
    release, err := l.Acquire(context.Background(), 3)
    require.NoError(t, err)

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    _, err = l.Acquire(ctx, 3)
    assert.ErrorIs(t, err, ErrBusy)

    other, err := l.Acquire(context.Background(), 4)
    require.NoError(t, err)
    other()
    release()
    release()
    assert.Zero(t, l.held())
}

func TestRedisExclusive(t *testing.T) {
    _, rdb := setupMiniRedis(t)
    exclusive(t, NewRedis(rdb, "test:room", time.Second, 5*time.Second))
}

func TestRedisBusyAndRelease(t *testing.T) {
    mr, rdb := setupMiniRedis(t)
    l := NewRedis(rdb, "", time.Second, 50*time.Millisecond)

    release, err := l.Acquire(context.Background(), 9)
    require.NoError(t, err)
    assert.True(t, mr.Exists("lock:room:9"))

    _, err = l.Acquire(context.Background(), 9)
    assert.ErrorIs(t, err, ErrBusy)

    release()
    assert.False(t, mr.Exists("lock:room:9"))
}

func TestRedisReleaseKeepsForeignLease(t *testing.T) {
    mr, rdb := setupMiniRedis(t)
    l := NewRedis(rdb, "", time.Second, 0)

    release, err := l.Acquire(context.Background(), 9)
    require.NoError(t, err)

    // Lease expired and someone else took it.
    mr.FastForward(2 * time.Second)
    require.NoError(t, mr.Set("lock:room:9", "someone-else"))

    release()
    v, err := mr.Get("lock:room:9")
    require.NoError(t, err)
    assert.Equal(t, "someone-else", v)
}
