package contact

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func admitN(t *testing.T, s RateLimitStore, id string, n int) []bool {
	t.Helper()
	out := make([]bool, 0, n)
	for range n {
		ok, err := s.Admit(context.Background(), id)
		require.NoError(t, err)
		out = append(out, ok)
	}
	return out
}

func TestMemoryStore_SixthSubmissionRejected(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore(5, 15*time.Minute, WithClock(clock.Now))

	got := admitN(t, s, "203.0.113.7", 6)
	require.Equal(t, []bool{true, true, true, true, true, false}, got)

	// rejections do not extend or consume anything further
	got = admitN(t, s, "203.0.113.7", 3)
	require.Equal(t, []bool{false, false, false}, got)
}

func TestMemoryStore_WindowResetsAfterFifteenMinutes(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore(5, 15*time.Minute, WithClock(clock.Now))

	admitN(t, s, "ip", 1)
	clock.Advance(10 * time.Minute)
	require.Equal(t, []bool{true, true, true, true, false}, admitN(t, s, "ip", 5))

	// exactly at the reset instant the window is still closed
	clock.Advance(5 * time.Minute)
	require.Equal(t, []bool{false}, admitN(t, s, "ip", 1))

	clock.Advance(time.Millisecond)
	require.Equal(t, []bool{true, true, true, true, true, false}, admitN(t, s, "ip", 6))
}

func TestMemoryStore_ClientsAreIndependent(t *testing.T) {
	s := NewMemoryStore(1, time.Minute)

	require.Equal(t, []bool{true, false}, admitN(t, s, "a", 2))
	require.Equal(t, []bool{true, false}, admitN(t, s, "b", 2))
	require.Equal(t, 2, s.Len())
}

func TestMemoryStore_UnknownClientNeverLimited(t *testing.T) {
	s := NewMemoryStore(1, time.Hour)

	for _, id := range []string{"", "  ", UnknownClient} {
		for _, ok := range admitN(t, s, id, 50) {
			require.True(t, ok, "client %q", id)
		}
	}
	require.Zero(t, s.Len())
}

func TestMemoryStore_ConcurrentAdmitsRespectLimit(t *testing.T) {
	s := NewMemoryStore(5, time.Minute)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int64
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Admit(context.Background(), "shared"); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 5, admitted.Load())
}

func TestMemoryStore_Defaults(t *testing.T) {
	s := NewMemoryStore(0, 0)
	require.Equal(t, DefaultRateLimitMax, s.max)
	require.Equal(t, DefaultRateLimitWindow, s.window)
}

func TestRedisStore_UnknownClientSkipsRedis(t *testing.T) {
	// a nil client would panic if it were reached
	s := NewRedisStore(nil, 1, time.Minute)
	ok, err := s.Admit(context.Background(), UnknownClient)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	s := NewRedisStore(nil, 1, time.Minute, WithKeyPrefix(":site:rl:"))
	require.Equal(t, "site:rl:198.51.100.1", s.key("198.51.100.1"))

	s = NewRedisStore(nil, 1, time.Minute, WithKeyPrefix(""))
	require.Equal(t, "portfolio:contact:ratelimit:x", s.key("x"))
}

// Runs against a real server: REDIS_ADDR=localhost:6379 go test ./internal/...
func TestRedisStore_FixedWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	prefix := "portfolio:test:" + time.Now().Format("150405.000000")
	s := NewRedisStore(rdb, 5, 500*time.Millisecond, WithKeyPrefix(prefix))
	t.Cleanup(func() { rdb.Del(ctx, s.key("client")) })

	require.Equal(t, []bool{true, true, true, true, true, false}, admitN(t, s, "client", 6))

	n, err := rdb.Get(ctx, s.key("client")).Int()
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.Eventually(t, func() bool {
		ok, err := s.Admit(ctx, "client")
		return err == nil && ok
	}, 3*time.Second, 100*time.Millisecond)
}
