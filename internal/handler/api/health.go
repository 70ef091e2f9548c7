package api

import (
	"context"
	"net/http"
	"time"

	xhttp "UMKMForecast/pkg/http"

	"github.com/labstack/echo/v4"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler checks every named dependency; nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	hc := &HealthHandler{checks: make(map[string]Pinger), timeout: 2 * time.Second}
	for name, p := range checks {
		if p != nil {
			hc.checks[name] = p
		}
	}
	return hc
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	return xhttp.DataResponse(c, status, map[string]interface{}{"checks": report})
}
