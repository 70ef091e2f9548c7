package service

import (
	"context"
	"io"

	"UMKMForecast/internal/domain/models"
)

// ForecastBackend is the external forecasting service that owns CSV parsing and training.
type ForecastBackend interface {
	Upload(ctx context.Context, filename string, r io.Reader) (models.UploadSummary, error)
	Train(ctx context.Context, sessionID string) (models.TrainingResult, error)
	ProductPerformance(ctx context.Context, sessionID string) ([]models.ProductPerformance, error)
	FeatureImportance(ctx context.Context, sessionID string) (models.FeatureImportance, error)
	TimeSeries(ctx context.Context, sessionID, product string) (models.TimeSeries, error)
}
