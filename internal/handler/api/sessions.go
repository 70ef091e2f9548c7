package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/service/metrics"
	"UMKMForecast/internal/usecase"
	xhttp "UMKMForecast/pkg/http"
	"UMKMForecast/pkg/http/middleware"
	xlogger "UMKMForecast/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RateLimit configures the token bucket guarding upload and train.
type RateLimit struct {
	Allower      middleware.Allower
	Capacity     float64
	RefillPerSec float64
}

// SessionsHandler exposes the upload, training and analysis endpoints.
type SessionsHandler struct {
	logger     *xlogger.Logger
	workflow   *usecase.ForecastWorkflow
	metrics    *metrics.ViewMetrics
	limit      RateLimit
	defaultTop int
	maxUpload  string
}

func NewSessionsHandler(logger *xlogger.Logger, wf *usecase.ForecastWorkflow, vm *metrics.ViewMetrics, limit RateLimit, defaultTop int) *SessionsHandler {
	if defaultTop <= 0 {
		defaultTop = 5
	}
	return &SessionsHandler{
		logger:     logger,
		workflow:   wf,
		metrics:    vm,
		limit:      limit,
		defaultTop: defaultTop,
		maxUpload:  "32M",
	}
}

func (h *SessionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/sessions")

	var guarded []echo.MiddlewareFunc
	if h.limit.Allower != nil && h.limit.Capacity > 0 {
		guarded = append(guarded, middleware.RateLimit(h.limit.Allower, h.limit.Capacity, h.limit.RefillPerSec))
	}

	g.POST("", h.Upload, append(guarded, echomw.BodyLimit(h.maxUpload))...)
	g.POST("/:id/train", h.Train, guarded...)
	g.GET("/:id", h.Session)
	g.GET("/:id/results", h.Results)
	g.GET("/:id/financial", h.Financial)
	g.GET("/:id/recommendations", h.Recommendations)
	g.GET("/:id/dashboard", h.Dashboard)
	g.GET("/:id/feature-importance", h.FeatureImportance)
	g.GET("/:id/time-series/:product", h.TimeSeries)
}

// Upload accepts a multipart "file" field holding the sales CSV.
func (h *SessionsHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_REQUIRED", "file", "file is required", http.StatusBadRequest))
	}
	f, err := fh.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("cannot read upload: %v", err))
	}
	defer f.Close()

	sess, err := h.workflow.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return h.fail(c, "upload", err)
	}
	return xhttp.CreatedResponse(c, sess.Summary())
}

// Train trains synchronously and answers with the dashboard, or enqueues
// the run and answers 202 when async=true.
func (h *SessionsHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	if req.Async {
		sess, err := h.workflow.StartTraining(ctx, req.ID, middleware.GetRequestID(c))
		if err != nil {
			return h.fail(c, "train", err)
		}
		c.Response().Header().Set(echo.HeaderLocation, "/api/sessions/"+req.ID)
		return xhttp.AcceptedResponse(c, sess)
	}

	d, err := h.workflow.Train(ctx, req.ID, h.defaultTop)
	if err != nil {
		return h.fail(c, "train", err)
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *SessionsHandler) Session(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "session", func(ctx context.Context) (interface{}, error) {
		return h.workflow.Session(ctx, req.ID)
	})
}

func (h *SessionsHandler) Results(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "results", func(ctx context.Context) (interface{}, error) {
		return h.workflow.Results(ctx, req.ID)
	})
}

func (h *SessionsHandler) Financial(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "financial", func(ctx context.Context) (interface{}, error) {
		return h.workflow.Financial(ctx, req.ID)
	})
}

func (h *SessionsHandler) Recommendations(c echo.Context) error {
	req := &models.ViewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "recommendations", func(ctx context.Context) (interface{}, error) {
		return h.workflow.Recommendations(ctx, req.ID, req.Top)
	})
}

func (h *SessionsHandler) Dashboard(c echo.Context) error {
	req := &models.ViewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "dashboard", func(ctx context.Context) (interface{}, error) {
		return h.workflow.Dashboard(ctx, req.ID, req.Top)
	})
}

func (h *SessionsHandler) FeatureImportance(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "feature_importance", func(ctx context.Context) (interface{}, error) {
		return h.workflow.FeatureImportance(ctx, req.ID)
	})
}

func (h *SessionsHandler) TimeSeries(c echo.Context) error {
	req := &models.TimeSeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.view(c, "time_series", func(ctx context.Context) (interface{}, error) {
		return h.workflow.TimeSeries(ctx, req.ID, req.Product)
	})
}

func (h *SessionsHandler) view(c echo.Context, name string, fn func(context.Context) (interface{}, error)) error {
	start := time.Now()
	res, err := fn(c.Request().Context())
	if err != nil {
		h.metrics.Observe(name, start, errorKind(err))
		return h.fail(c, name, err)
	}
	h.metrics.Observe(name, start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *SessionsHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps workflow errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrSessionNotFound):
		return xhttp.NotFoundError("session not found").WithError(err)
	case errors.Is(err, models.ErrInvalidUpload):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrTrainingInProgress):
		return xhttp.ConflictError("training in progress").WithError(err)
	case errors.Is(err, models.ErrNotTrained):
		return xhttp.ConflictError("session has not been trained").WithError(err)
	case errors.Is(err, models.ErrNoFinancialData):
		return xhttp.UnprocessableError("training result has no financial scenarios").WithError(err)
	case errors.Is(err, models.ErrAsyncDisabled):
		return xhttp.NotImplementedError("asynchronous training is not enabled").WithError(err)
	case errors.Is(err, models.ErrBackendUnavailable):
		return xhttp.BadGatewayError("forecast backend unavailable").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, models.ErrNotTrained), errors.Is(err, models.ErrTrainingInProgress):
		return "not_trained"
	case errors.Is(err, models.ErrNoFinancialData):
		return "no_financial_data"
	case errors.Is(err, models.ErrBackendUnavailable):
		return "backend"
	default:
		return "internal"
	}
}
