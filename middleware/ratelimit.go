package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"storefront/models"
)

const TooManyRequestsMessage = "Too many requests, hold on for a while"

// Limiter decides whether a request from client may proceed.
type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

type windowEntry struct {
	start time.Time
	count int
}

// FixedWindowLimiter admits at most max requests per client within each
// window. A window opens with the client's first request and resets once more
// than window has passed since it opened.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	clients map[string]*windowEntry
	now     func() time.Time
}

func NewFixedWindowLimiter(window time.Duration, max int) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		window:  window,
		max:     max,
		clients: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (l *FixedWindowLimiter) Allow(_ context.Context, client string) (bool, error) {
	return l.AllowAt(client, l.now()), nil
}

func (l *FixedWindowLimiter) AllowAt(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[client]
	if !ok {
		l.clients[client] = &windowEntry{start: now, count: 1}
		return true
	}
	if now.Sub(entry.start) > l.window {
		entry.start = now
		entry.count = 0
	}
	if entry.count < l.max {
		entry.count++
		return true
	}
	return false
}

// Clients reports how many client windows are currently tracked.
func (l *FixedWindowLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Sweep drops clients whose window has elapsed and returns how many were removed.
func (l *FixedWindowLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for client, entry := range l.clients {
		if now.Sub(entry.start) > l.window {
			delete(l.clients, client)
			removed++
		}
	}
	return removed
}

func (l *FixedWindowLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := l.Sweep(now); n > 0 {
					log.Debug().Int("removed", n).Msg("rate limiter sweep")
				}
			}
		}
	}()
}

var fixedWindowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisFixedWindow shares client windows between processes. The key expires
// window after the first request, so counts restart with the next request.
type RedisFixedWindow struct {
	client *redis.Client
	window time.Duration
	max    int
	prefix string
}

func NewRedisFixedWindow(client *redis.Client, window time.Duration, max int) *RedisFixedWindow {
	return &RedisFixedWindow{
		client: client,
		window: window,
		max:    max,
		prefix: "ratelimit:",
	}
}

func (l *RedisFixedWindow) Allow(ctx context.Context, client string) (bool, error) {
	n, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + client}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(l.max), nil
}

type RequestStats struct {
	Requests   int64 `json:"requests"`
	Responses  int64 `json:"responses"`
	Exceptions int64 `json:"exceptions"`
}

// RequestCounters counts every request seen and every admitted response.
// Rejections and handler panics count as exceptions.
type RequestCounters struct {
	requests   atomic.Int64
	responses  atomic.Int64
	exceptions atomic.Int64
}

func (c *RequestCounters) Stats() RequestStats {
	return RequestStats{
		Requests:   c.requests.Load(),
		Responses:  c.responses.Load(),
		Exceptions: c.exceptions.Load(),
	}
}

// RateLimitMiddleware keys requests by client IP. Limiter errors let the
// request through.
func RateLimitMiddleware(limiter Limiter, counters *RequestCounters) gin.HandlerFunc {
	return func(c *gin.Context) {
		counters.requests.Add(1)

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn().Err(err).Str("client", c.ClientIP()).Msg("rate limiter unavailable")
			allowed = true
		}
		if !allowed {
			counters.exceptions.Add(1)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Message: TooManyRequestsMessage,
			})
			return
		}

		completed := false
		defer func() {
			if !completed {
				counters.exceptions.Add(1)
			}
		}()
		c.Next()
		completed = true
		counters.responses.Add(1)
	}
}
