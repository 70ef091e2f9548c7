package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/domain/repository"
	xhttp "UMKMForecast/pkg/http"
	"UMKMForecast/pkg/logger"
)

// Client talks to the forecasting backend that parses uploads and trains models.
type Client struct {
	*HTTPServiceBase
	trainTimeout  time.Duration
	retryAttempts int
	metrics       repository.Metrics
	logger        *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTrainTimeout bounds a single training call.
func WithTrainTimeout(d time.Duration) Option {
	return func(c *Client) { c.trainTimeout = d }
}

// WithRetryAttempts sets how often idempotent reads are tried.
func WithRetryAttempts(n int) Option {
	return func(c *Client) { c.retryAttempts = n }
}

// WithMetrics records every backend call on m.
func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a backend client rooted at base.
func NewClient(base *HTTPServiceBase, opts ...Option) *Client {
	c := &Client{
		HTTPServiceBase: base,
		trainTimeout:    10 * time.Minute,
		retryAttempts:   3,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload sends the CSV to the backend, which assigns the session id.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (models.UploadSummary, error) {
	var out models.UploadSummary
	err := c.call("upload", func() error {
		return c.PostMultipart(ctx, "/api/upload", "file", filename, r, &out)
	})
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return out, fmt.Errorf("%w: %s", models.ErrInvalidUpload, detail(se.Body))
		}
		return out, mapError(err)
	}
	if out.SessionID == "" {
		return out, fmt.Errorf("%w: upload response without session_id", models.ErrBackendUnavailable)
	}
	return out, nil
}

// Train runs the full training pipeline for an uploaded session.
func (c *Client) Train(ctx context.Context, sessionID string) (models.TrainingResult, error) {
	var out models.TrainingResult
	err := c.call("train", func() error {
		return c.PostJSON(ctx, "/api/train/"+url.PathEscape(sessionID), nil, &out, c.trainTimeout)
	})
	if err != nil {
		return out, mapError(err)
	}
	if out.SessionID == "" {
		out.SessionID = sessionID
	}
	return out, nil
}

// ProductPerformance returns per-product test metrics in backend order.
func (c *Client) ProductPerformance(ctx context.Context, sessionID string) ([]models.ProductPerformance, error) {
	var out models.ProductPerformanceList
	err := c.call("product_performance", func() error {
		return c.GetJSONWithRetry(ctx, "/api/product-performance/"+url.PathEscape(sessionID), &out, c.retryAttempts)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out.Products, nil
}

// FeatureImportance returns the best model's top features.
func (c *Client) FeatureImportance(ctx context.Context, sessionID string) (models.FeatureImportance, error) {
	var out models.FeatureImportance
	err := c.call("feature_importance", func() error {
		return c.GetJSONWithRetry(ctx, "/api/feature-importance/"+url.PathEscape(sessionID), &out, c.retryAttempts)
	})
	if err != nil {
		return out, mapError(err)
	}
	if len(out.Features) != len(out.Importance) {
		return out, fmt.Errorf("%w: feature importance lengths differ (%d features, %d values)",
			models.ErrBackendUnavailable, len(out.Features), len(out.Importance))
	}
	return out, nil
}

// TimeSeries returns actual and predicted test-period sales for one product.
func (c *Client) TimeSeries(ctx context.Context, sessionID, product string) (models.TimeSeries, error) {
	var out models.TimeSeries
	path := "/api/time-series/" + url.PathEscape(sessionID) + "/" + url.PathEscape(product)
	err := c.call("time_series", func() error {
		return c.GetJSONWithRetry(ctx, path, &out, c.retryAttempts)
	})
	if err != nil {
		return out, mapError(err)
	}
	out.Product = product
	return out, nil
}

func (c *Client) call(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	result := "ok"
	if err != nil {
		result = "error"
		c.logger.Warn("forecast backend call failed",
			logger.String("op", op),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	} else {
		c.logger.Debug("forecast backend call",
			logger.String("op", op),
			logger.Duration("elapsed", elapsed))
	}
	if c.metrics != nil {
		c.metrics.RecordBackendCall(op, result, elapsed.Seconds())
	}
	return err
}

// mapError turns transport failures into domain errors. The backend wraps its
// own 404s into 500 responses, so the detail text is checked as well.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound || mentionsNotFound(se.Body) {
			return fmt.Errorf("%w: %s", models.ErrSessionNotFound, detail(se.Body))
		}
		return fmt.Errorf("%w: status %d: %s", models.ErrBackendUnavailable, se.Code, detail(se.Body))
	}
	return fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
}

func mentionsNotFound(body string) bool {
	return strings.Contains(strings.ToLower(body), "not found")
}

// detail extracts the {"detail": "..."} message error bodies carry.
func detail(body string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || len(payload.Detail) == 0 {
		return body
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
