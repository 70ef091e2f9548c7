package usecase

import (
	"context"
	"fmt"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/services/recommend"
	"UMKMForecast/internal/services/scenario"
	"UMKMForecast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Session returns the session status without the training payload.
func (w *ForecastWorkflow) Session(ctx context.Context, id string) (models.Session, error) {
	sess, err := w.store.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	return sess.Summary(), nil
}

// Results returns the model comparison of a trained session.
func (w *ForecastWorkflow) Results(ctx context.Context, id string) (models.ModelResults, error) {
	sess, err := w.trained(ctx, id)
	if err != nil {
		return models.ModelResults{}, err
	}
	return scenario.Results(sess.Result), nil
}

// Financial returns the scenario comparison of a trained session.
func (w *ForecastWorkflow) Financial(ctx context.Context, id string) (models.FinancialAnalysis, error) {
	sess, err := w.trained(ctx, id)
	if err != nil {
		return models.FinancialAnalysis{}, err
	}
	return scenario.Analyze(sess.Result)
}

// Recommendations classifies the first top products and summarises expected
// outcomes. A failed product fetch degrades the report instead of failing it.
func (w *ForecastWorkflow) Recommendations(ctx context.Context, id string, top int) (models.RecommendationReport, error) {
	sess, err := w.trained(ctx, id)
	if err != nil {
		return models.RecommendationReport{}, err
	}

	products, available := w.products(ctx, id)
	return w.recommender.Build(recommend.Input{
		Result:            sess.Result,
		Financial:         financialOrNil(sess.Result),
		Products:          products,
		ProductsAvailable: available,
		Top:               top,
	}), nil
}

// Dashboard bundles every view of a trained session.
func (w *ForecastWorkflow) Dashboard(ctx context.Context, id string, top int) (models.Dashboard, error) {
	sess, err := w.trained(ctx, id)
	if err != nil {
		return models.Dashboard{}, err
	}
	return w.dashboard(ctx, sess, top)
}

// dashboard fetches product performance and feature importance concurrently.
// Either may fail without failing the dashboard; cancellation of ctx does.
func (w *ForecastWorkflow) dashboard(ctx context.Context, sess *models.Session, top int) (models.Dashboard, error) {
	var (
		products  []models.ProductPerformance
		available bool
		features  *models.FeatureImportance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, available = w.products(gctx, sess.ID)
		return ctx.Err()
	})
	g.Go(func() error {
		fi, err := w.backend.FeatureImportance(gctx, sess.ID)
		if err != nil {
			w.logger.Warn("feature importance unavailable", logger.String("session_id", sess.ID), logger.Error(err))
			return ctx.Err()
		}
		features = &fi
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}

	results := scenario.Results(sess.Result)
	financial := financialOrNil(sess.Result)
	return models.Dashboard{
		Session:   sess.Summary(),
		Results:   results,
		Financial: financial,
		Recommendations: w.recommender.Build(recommend.Input{
			Result:            sess.Result,
			Financial:         financial,
			Products:          products,
			ProductsAvailable: available,
			Top:               top,
		}),
		FeatureImportance: features,
	}, nil
}

// FeatureImportance returns the best model's feature ranking.
func (w *ForecastWorkflow) FeatureImportance(ctx context.Context, id string) (models.FeatureImportance, error) {
	if _, err := w.trained(ctx, id); err != nil {
		return models.FeatureImportance{}, err
	}
	return w.backend.FeatureImportance(ctx, id)
}

// TimeSeries returns actual vs predicted demand for one product.
func (w *ForecastWorkflow) TimeSeries(ctx context.Context, id, product string) (models.TimeSeries, error) {
	if _, err := w.trained(ctx, id); err != nil {
		return models.TimeSeries{}, err
	}
	return w.backend.TimeSeries(ctx, id, product)
}

func (w *ForecastWorkflow) trained(ctx context.Context, id string) (*models.Session, error) {
	sess, err := w.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// A previous result is kept on the session but never served while a
	// retrain is running or after it failed.
	switch {
	case sess.Status == models.StatusTraining:
		return nil, models.ErrTrainingInProgress
	case sess.Status == models.StatusFailed:
		return nil, fmt.Errorf("%w: session %s failed: %s", models.ErrNotTrained, id, sess.Error)
	case sess.Result == nil:
		return nil, fmt.Errorf("%w: session %s is %s", models.ErrNotTrained, id, sess.Status)
	}
	return sess, nil
}

func (w *ForecastWorkflow) products(ctx context.Context, id string) ([]models.ProductPerformance, bool) {
	products, err := w.backend.ProductPerformance(ctx, id)
	if err != nil {
		w.logger.Warn("product performance unavailable", logger.String("session_id", id), logger.Error(err))
		return nil, false
	}
	return products, true
}

// financialOrNil hides ErrNoFinancialData, the only error Analyze returns.
func financialOrNil(res *models.TrainingResult) *models.FinancialAnalysis {
	fa, err := scenario.Analyze(res)
	if err != nil {
		return nil
	}
	return &fa
}
