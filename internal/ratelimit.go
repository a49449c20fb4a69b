//go:generate go run go.uber.org/mock/mockgen -source=ratelimit.go -destination=mock_ratelimit_test.go -package=contact

package contact

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnknownClient is the id used when no client address could be determined.
// Such callers cannot be told apart and are never limited.
const UnknownClient = "unknown"

const (
	DefaultRateLimitMax    = 5
	DefaultRateLimitWindow = 15 * time.Minute
)

// RateLimitStore decides whether one more submission from clientID fits in
// its fixed admission window.
type RateLimitStore interface {
	Admit(ctx context.Context, clientID string) (bool, error)
}

func identifiable(clientID string) bool {
	id := strings.TrimSpace(clientID)
	return id != "" && id != UnknownClient
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps one fixed-window counter per client in process memory.
// Entries are never evicted; an expired entry is reset on the client's next
// submission.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(max int, window time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	s := &MemoryStore{
		entries: make(map[string]*rateLimitEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Admit(_ context.Context, clientID string) (bool, error) {
	if !identifiable(clientID) {
		return true, nil
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[clientID]
	if !ok || now.After(e.resetAt) {
		s.entries[clientID] = &rateLimitEntry{count: 1, resetAt: now.Add(s.window)}
		return true, nil
	}
	if e.count >= s.max {
		return false, nil
	}
	e.count++
	return true, nil
}

// Len reports how many clients are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fixedWindowScript: KEYS[1] counter key, ARGV[1] max, ARGV[2] window in ms.
// Returns 1 when admitted, 0 otherwise. A rejected call leaves the count alone.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return 1
end
if tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('INCR', KEYS[1])
return 1
`)

// RedisStore shares the fixed-window counters between server instances.
// The key expires with the window, which gives the same reset semantics as
// MemoryStore.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	max    int
	window time.Duration
}

type RedisStoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func NewRedisStore(rdb redis.Scripter, max int, window time.Duration, opts ...RedisStoreOption) *RedisStore {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	s := &RedisStore{
		rdb:    rdb,
		prefix: "portfolio:contact:ratelimit",
		max:    max,
		window: window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Admit(ctx context.Context, clientID string) (bool, error) {
	if !identifiable(clientID) {
		return true, nil
	}
	res, err := fixedWindowScript.Run(ctx, s.rdb,
		[]string{s.key(clientID)},
		s.max, s.window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit %q: %w", clientID, err)
	}
	return res == 1, nil
}

func (s *RedisStore) key(clientID string) string {
	return s.prefix + ":" + clientID
}
