package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"orbitlend-backend/internal/infrastructure/logger"
)

// RateLimit allows Requests per Window for each key, with Burst headroom.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// KeyFunc groups requests for limiting; an empty key skips the limiter.
type KeyFunc func(c echo.Context) string

// ByIP keys on echo's resolved client address.
func ByIP(c echo.Context) string { return c.RealIP() }

type limiterSet struct {
	limiters    sync.Map // key -> *rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(s.rate, s.burst))
	s.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full bucket) at most every five minutes.
func (s *limiterSet) maybeCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCleanup) < 5*time.Minute {
		return
	}
	s.lastCleanup = time.Now()
	s.limiters.Range(func(k, v any) bool {
		if v.(*rate.Limiter).Tokens() >= float64(s.burst) {
			s.limiters.Delete(k)
		}
		return true
	})
}

// Limit rejects requests over cfg with 429 and a Retry-After header.
func Limit(cfg RateLimit, key KeyFunc) echo.MiddlewareFunc {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}
	set := &limiterSet{
		rate:        rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if k == "" {
				return next(c)
			}
			l := set.get(k)
			if l.Allow() {
				return next(c)
			}

			r := l.Reserve()
			delay := r.Delay()
			r.Cancel()
			retryAfter := max(int(delay.Seconds()), 1)

			h := c.Response().Header()
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			h.Set("X-RateLimit-Window", cfg.Window.String())
			logger.FromContext(c.Request().Context()).Warn("rate limit exceeded",
				"key", k, "path", c.Path(), "retry_after", retryAfter)
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
		}
	}
}
