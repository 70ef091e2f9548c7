package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"UMKMForecast/pkg/http/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type viewRequest struct {
	ID  string `param:"id" validate:"required"`
	Top int    `query:"top" default:"5" validate:"gte=1,lte=50"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/things/:id", func(c echo.Context) error {
		req := &viewRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, req)
	})
	e.POST("/things/:id", func(c echo.Context) error {
		req := &viewRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return AcceptedResponse(c, req)
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundError("nope"))
	})
	e.GET("/limited", func(c echo.Context) error {
		return SuccessResponse(c, "ok")
	}, middleware.RateLimit(denyAll{}, 1, 1))
}

type denyAll struct{}

func (denyAll) Allow(string, float64, float64) bool { return false }

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestServerBindsDefaultsAndValidates(t *testing.T) {
	s := NewServer(testHandler{})

	rec, resp := do(t, s, http.MethodGet, "/things/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "abc", data["ID"])
	assert.Equal(t, float64(5), data["Top"])

	rec, resp = do(t, s, http.MethodGet, "/things/abc?top=99")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := resp.Data.([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_LTE", errs[0].(map[string]any)["code"])
}

func TestServerBindsQueryOnPost(t *testing.T) {
	s := NewServer(testHandler{})
	rec, resp := do(t, s, http.MethodPost, "/things/abc?top=7")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, float64(7), resp.Data.(map[string]any)["Top"])
}

func TestServerAppErrorAndUnknownRoute(t *testing.T) {
	s := NewServer(testHandler{})

	rec, _ := do(t, s, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp := do(t, s, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestServerRateLimitUsesErrorEnvelope(t *testing.T) {
	s := NewServer(testHandler{})

	rec, resp := do(t, s, http.MethodGet, "/limited")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	errs := resp.Data.([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_RATE_LIMITED", errs[0].(map[string]any)["code"])
	assert.Equal(t, "rate limit exceeded", errs[0].(map[string]any)["message"])
}

func TestServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(testHandler{}, WithMetrics(reg, "/metrics", 0))

	do(t, s, http.MethodGet, "/things/abc")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/things/:id",status="200"} 1`)
}
