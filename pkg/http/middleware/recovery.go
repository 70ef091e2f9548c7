package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"UMKMForecast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into 500 responses.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						logger.String("route", routeLabel(c)),
						logger.Error(perr),
						logger.String("stack", string(debug.Stack())))
					err = echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			return next(c)
		}
	}
}
