package middleware

import (
	"time"

	"UMKMForecast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request at a level matching the outcome.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status below is final.
				c.Error(err)
			}

			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", routeLabel(c)),
				logger.String("uri", req.RequestURI),
				logger.Int("status", status),
				logger.Duration("latency_ms", time.Since(start)),
				logger.String("remote_ip", c.RealIP()),
				logger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			}
			switch {
			case status >= 500:
				l.Error("http request", fields...)
			case status >= 400:
				l.Warn("http request", fields...)
			default:
				l.Info("http request", fields...)
			}

			return nil
		}
	}
}
