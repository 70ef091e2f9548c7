package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimit applies a token bucket per client IP and route.
func RateLimit(a Allower, capacity, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + "|" + c.Request().Method + " " + routeLabel(c)
			if !a.Allow(key, capacity, refillPerSec) {
				c.Response().Header().Set("Retry-After", "5")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
