package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"skillswap/pkg/logger"
)

// IPRateLimiter is a per-IP token bucket for the HTTP surface. The per-user
// event limits live in the realtime layer; this one only shields the REST
// endpoints and the websocket upgrade from abusive clients.
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens     int
	lastSeen   time.Time
	blockUntil time.Time
}

func NewIPRateLimiter(rate int, window time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *IPRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if retryAfter, blocked := rl.take(c.RealIP()); blocked {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": int(retryAfter.Seconds()),
				})
			}
			return next(c)
		}
	}
}

func (rl *IPRateLimiter) take(ip string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return 0, false
	}

	if now.Before(v.blockUntil) {
		return time.Until(v.blockUntil), true
	}

	refill := int(now.Sub(v.lastSeen) / rl.window * time.Duration(rl.rate))
	v.tokens += refill
	if v.tokens > rl.rate {
		v.tokens = rl.rate
	}
	v.lastSeen = now

	if v.tokens <= 0 {
		v.blockUntil = now.Add(rl.window)
		logger.Warn("rate limiting activated for IP %s", ip)
		return rl.window, true
	}

	v.tokens--
	return 0, false
}

func (rl *IPRateLimiter) cleanup() {
	for {
		time.Sleep(time.Hour)

		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 2*time.Hour {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
