package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RateLimitSuite struct {
	suite.Suite
	t0 time.Time
}

func TestRateLimitSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RateLimitSuite) TestFixedWindowAdmitsThreeThenRejects() {
	l := NewFixedWindowLimiter(2*time.Second, 3)

	for i := 0; i < 3; i++ {
		s.True(l.AllowAt("10.0.0.1", s.t0.Add(time.Duration(i)*100*time.Millisecond)), "request %d", i+1)
	}
	s.False(l.AllowAt("10.0.0.1", s.t0.Add(500*time.Millisecond)))
	s.False(l.AllowAt("10.0.0.1", s.t0.Add(2*time.Second)), "window is still open at exactly its length")
	s.True(l.AllowAt("10.0.0.1", s.t0.Add(2*time.Second+time.Millisecond)), "window resets after it elapses")
}

func (s *RateLimitSuite) TestFixedWindowTracksClientsSeparately() {
	l := NewFixedWindowLimiter(2*time.Second, 3)
	for i := 0; i < 3; i++ {
		l.AllowAt("10.0.0.1", s.t0)
	}
	s.False(l.AllowAt("10.0.0.1", s.t0))
	s.True(l.AllowAt("10.0.0.2", s.t0))
	s.Equal(2, l.Clients())
}

func (s *RateLimitSuite) TestSweepRemovesElapsedWindows() {
	l := NewFixedWindowLimiter(2*time.Second, 3)
	l.AllowAt("old", s.t0)
	l.AllowAt("fresh", s.t0.Add(3*time.Second))

	s.Equal(1, l.Sweep(s.t0.Add(3*time.Second)))
	s.Equal(1, l.Clients())
	s.True(l.AllowAt("old", s.t0.Add(3*time.Second)))
}

func (s *RateLimitSuite) TestRedisFixedWindow() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisFixedWindow(client, 2*time.Second, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		s.Require().NoError(err)
		s.True(ok, "request %d", i+1)
	}
	ok, err := l.Allow(ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = l.Allow(ctx, "10.0.0.2")
	s.Require().NoError(err)
	s.True(ok)

	mr.FastForward(2 * time.Second)
	ok, err = l.Allow(ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RateLimitSuite) TestMiddlewareReturns429() {
	counters := &RequestCounters{}
	r := gin.New()
	r.Use(RateLimitMiddleware(NewFixedWindowLimiter(2*time.Second, 3), counters))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := []int{}
	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
		last = w
	}

	s.Equal([]int{200, 200, 200, 429}, codes)
	s.Contains(last.Body.String(), TooManyRequestsMessage)
	s.Equal(RequestStats{Requests: 4, Responses: 3, Exceptions: 1}, counters.Stats())
}

func (s *RateLimitSuite) TestMiddlewareCountsPanics() {
	counters := &RequestCounters{}
	r := gin.New()
	r.Use(gin.RecoveryWithWriter(io.Discard))
	r.Use(RateLimitMiddleware(NewFixedWindowLimiter(2*time.Second, 3), counters))
	r.GET("/boom", func(*gin.Context) { panic("handler failed") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal(RequestStats{Requests: 1, Responses: 0, Exceptions: 1}, counters.Stats())
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(brokenLimiter{}, &RequestCounters{}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}
