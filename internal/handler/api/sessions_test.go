package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/repository"
	"UMKMForecast/internal/service/metrics"
	"UMKMForecast/internal/service/ratelimit"
	"UMKMForecast/internal/usecase"
	"UMKMForecast/pkg/cache"
	xhttp "UMKMForecast/pkg/http"
	xlogger "UMKMForecast/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	trainErr error
}

func (stubBackend) Upload(_ context.Context, _ string, r io.Reader) (models.UploadSummary, error) {
	_, _ = io.ReadAll(r)
	return models.UploadSummary{SessionID: "s1", TotalRecords: 10}, nil
}

func (b stubBackend) Train(context.Context, string) (models.TrainingResult, error) {
	if b.trainErr != nil {
		return models.TrainingResult{}, b.trainErr
	}
	return models.TrainingResult{
		BestModel: "LightGBM",
		SplitInfo: models.SplitInfo{TestSize: 146},
		FinancialScenarios: map[string]models.RawScenario{
			"Baseline":      {"Total Profit": -100000.0, "Total Waste": 500.0},
			"ML Prediction": {"total_profit": 50000.0, "total_waste": 200.0},
		},
	}, nil
}

func (stubBackend) ProductPerformance(context.Context, string) ([]models.ProductPerformance, error) {
	return []models.ProductPerformance{{Product: "A", MAE: 3}}, nil
}

func (stubBackend) FeatureImportance(context.Context, string) (models.FeatureImportance, error) {
	return models.FeatureImportance{Features: []string{"lag_7"}, Importance: []float64{1}}, nil
}

func (stubBackend) TimeSeries(_ context.Context, _ string, product string) (models.TimeSeries, error) {
	return models.TimeSeries{Product: product}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, backend stubBackend, limit RateLimit) *xhttp.Server {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	store := repository.NewCacheSessionStore(mc, time.Hour, time.Minute)
	wf := usecase.NewForecastWorkflow(backend, store)
	h := NewSessionsHandler(xlogger.Nop(), wf, metrics.NewViewMetrics(prometheus.NewRegistry()), limit, 5)
	return xhttp.NewServer(xhttp.Handlers{h, NewHealthHandler(map[string]Pinger{"cache": mc})})
}

func upload(t *testing.T, s *xhttp.Server, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = fw.Write([]byte("date,product_name,quantity_sold\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func call(t *testing.T, s *xhttp.Server, method, target string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var resp xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestUploadThenTrainEndToEnd(t *testing.T) {
	s := newTestServer(t, stubBackend{}, RateLimit{})

	rec := upload(t, s, "sales.csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = call(t, s, http.MethodGet, "/api/sessions/s1/financial")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp := call(t, s, http.MethodPost, "/api/sessions/s1/train")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := resp.Data.(map[string]any)
	fin := d["financial"].(map[string]any)
	cmp := fin["comparison"].(map[string]any)
	assert.Equal(t, "150", cmp["profit_improvement_pct"])
	assert.Equal(t, "60", cmp["waste_reduction_pct"])
	assert.Equal(t, "150000", cmp["additional_profit"])

	rec, _ = call(t, s, http.MethodGet, "/api/sessions/s1/recommendations?top=1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = call(t, s, http.MethodGet, "/api/sessions/s1/time-series/Roti%20Tawar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roti Tawar", resp.Data.(map[string]any)["product"])
}

func TestUploadRejectsNonCSV(t *testing.T) {
	s := newTestServer(t, stubBackend{}, RateLimit{})
	rec := upload(t, s, "sales.xlsx")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, stubBackend{trainErr: models.ErrBackendUnavailable}, RateLimit{})

	rec, _ := call(t, s, http.MethodGet, "/api/sessions/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, s, http.MethodGet, "/api/sessions/nope/dashboard?top=99")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, s, http.MethodPost, "/api/sessions/nope/train?async=true")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	require.Equal(t, http.StatusCreated, upload(t, s, "sales.csv").Code)
	rec, _ = call(t, s, http.MethodPost, "/api/sessions/s1/train")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestToAppError(t *testing.T) {
	cases := map[error]int{
		models.ErrSessionNotFound:                 http.StatusNotFound,
		models.ErrNotTrained:                      http.StatusConflict,
		models.ErrTrainingInProgress:              http.StatusConflict,
		models.ErrNoFinancialData:                 http.StatusUnprocessableEntity,
		models.ErrAsyncDisabled:                   http.StatusNotImplemented,
		models.ErrBackendUnavailable:              http.StatusBadGateway,
		models.ErrInvalidUpload:                   http.StatusBadRequest,
		errors.New("boom"):                        http.StatusInternalServerError,
		xhttp.NotFoundError("x"):                  http.StatusNotFound,
		errors.Join(models.ErrNotTrained, io.EOF): http.StatusConflict,
	}
	for err, want := range cases {
		if got := toAppError(err).Status; got != want {
			t.Fatalf("toAppError(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestUploadIsRateLimited(t *testing.T) {
	s := newTestServer(t, stubBackend{}, RateLimit{Allower: ratelimit.New(), Capacity: 1, RefillPerSec: 0.001})

	require.Equal(t, http.StatusCreated, upload(t, s, "sales.csv").Code)
	rec := upload(t, s, "sales.csv")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"ERR_RATE_LIMITED"`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, stubBackend{}, RateLimit{})
	rec, _ := call(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	h := NewHealthHandler(map[string]Pinger{"redis": failingPinger{}, "skipped": nil})
	srv := xhttp.NewServer(h)
	rec, resp := call(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := resp.Data.(map[string]any)["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["redis"])
	assert.NotContains(t, checks, "skipped")
}
