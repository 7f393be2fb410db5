package middleware

import (
	"github.com/labstack/echo/v4"
)

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimitConfig sizes the per-client token bucket.
type RateLimitConfig struct {
	Capacity     float64
	RefillPerSec float64
	// KeyFunc identifies the client. Defaults to the real IP.
	KeyFunc func(c echo.Context) string
	// OnLimited writes the rejection. Defaults to echo.ErrTooManyRequests.
	OnLimited func(c echo.Context) error
}

// RateLimit rejects requests with 429 once the client's bucket is empty.
func RateLimit(l Allower, cfg RateLimitConfig) echo.MiddlewareFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c echo.Context) string { return c.RealIP() }
	}
	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = func(echo.Context) error { return echo.ErrTooManyRequests }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Path() + "|" + keyFunc(c)
			if !l.Allow(key, cfg.Capacity, cfg.RefillPerSec) {
				return onLimited(c)
			}
			return next(c)
		}
	}
}
