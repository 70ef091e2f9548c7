package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/repository"
	"UMKMForecast/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	trainErr    error
	productsErr error
	featuresErr error
	trainCalls  int
}

func (b *fakeBackend) Upload(_ context.Context, filename string, r io.Reader) (models.UploadSummary, error) {
	_, _ = io.ReadAll(r)
	return models.UploadSummary{
		SessionID:    "session_1",
		TotalRecords: 730,
		Products:     models.ProductNames{Count: 4, Names: []string{"A", "B", "C", "D"}},
	}, nil
}

func (b *fakeBackend) Train(context.Context, string) (models.TrainingResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trainCalls++
	if b.trainErr != nil {
		return models.TrainingResult{}, b.trainErr
	}
	return models.TrainingResult{
		BestModel: "LightGBM",
		SplitInfo: models.SplitInfo{TestSize: 146},
		ModelPerformance: map[string]models.ModelMetrics{
			"LightGBM": {TestMAE: 4.1, TestMAPE: 12.5, TestR2: 0.81},
		},
		FinancialScenarios: map[string]models.RawScenario{
			"Baseline":      {"Total Profit": -100000.0, "Total Waste": 500.0},
			"ML Prediction": {"total_profit": 50000.0, "total_waste": 200.0},
		},
	}, nil
}

func (b *fakeBackend) ProductPerformance(context.Context, string) ([]models.ProductPerformance, error) {
	if b.productsErr != nil {
		return nil, b.productsErr
	}
	return []models.ProductPerformance{
		{Product: "A", MAE: 2}, {Product: "B", MAE: 7}, {Product: "C", MAE: 12}, {Product: "D", MAE: 30},
	}, nil
}

func (b *fakeBackend) FeatureImportance(context.Context, string) (models.FeatureImportance, error) {
	if b.featuresErr != nil {
		return models.FeatureImportance{}, b.featuresErr
	}
	return models.FeatureImportance{Features: []string{"lag_7"}, Importance: []float64{0.6}}, nil
}

func (b *fakeBackend) TimeSeries(_ context.Context, _ string, product string) (models.TimeSeries, error) {
	return models.TimeSeries{Product: product, Dates: []string{"2024-03-01"}, Actual: []float64{10}, Predicted: []float64{9}}, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (l *eventLog) Publish(_ context.Context, e models.SessionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) Close() error { return nil }

func (l *eventLog) types() []models.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.msgType, q.payload = msgType, payload
	return q.err
}

type env struct {
	wf      *ForecastWorkflow
	backend *fakeBackend
	store   *repository.CacheSessionStore
	events  *eventLog
}

func newEnv(t *testing.T, opts ...WorkflowOption) *env {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	store := repository.NewCacheSessionStore(mc, time.Hour, time.Minute).(*repository.CacheSessionStore)
	backend := &fakeBackend{}
	events := &eventLog{}
	opts = append([]WorkflowOption{WithEvents(events)}, opts...)
	return &env{
		wf:      NewForecastWorkflow(backend, store, opts...),
		backend: backend,
		store:   store,
		events:  events,
	}
}

func (e *env) upload(t *testing.T) string {
	t.Helper()
	sess, err := e.wf.Upload(context.Background(), "sales.csv", strings.NewReader("date,product_name\n"))
	require.NoError(t, err)
	return sess.ID
}

func TestUploadRequiresCSV(t *testing.T) {
	e := newEnv(t)
	_, err := e.wf.Upload(context.Background(), "sales.xlsx", strings.NewReader(""))
	assert.ErrorIs(t, err, models.ErrInvalidUpload)
	assert.Empty(t, e.events.types())
}

func TestUploadStoresSession(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)

	sess, err := e.wf.Session(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploaded, sess.Status)
	assert.Equal(t, 730, sess.Upload.TotalRecords)
	assert.Equal(t, []models.EventType{models.EventSessionUploaded}, e.events.types())
}

func TestTrainBuildsDashboard(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)

	d, err := e.wf.Train(context.Background(), id, 2)
	require.NoError(t, err)

	assert.Equal(t, models.StatusTrained, d.Session.Status)
	assert.Nil(t, d.Session.Result, "dashboard session is a summary")
	require.NotNil(t, d.Financial)
	assert.Equal(t, "150", d.Financial.Comparison.ProfitImprovementPct.String())
	assert.Equal(t, "60", d.Financial.Comparison.WasteReductionPct.String())
	assert.Equal(t, "150000", d.Financial.Comparison.AdditionalProfit.String())
	assert.Equal(t, "125000", d.Financial.AnnualProjection.String())

	assert.True(t, d.Recommendations.ProductsAvailable)
	require.Len(t, d.Recommendations.Products, 2)
	assert.Equal(t, models.ActionTrustModel, d.Recommendations.Products[0].Action)
	assert.Equal(t, models.ActionAddBuffer, d.Recommendations.Products[1].Action)
	assert.Equal(t, []string{"A", "B", "C"}, d.Recommendations.BestProducts)
	assert.Equal(t, []string{"B", "C", "D"}, d.Recommendations.WorstProducts)
	require.NotNil(t, d.FeatureImportance)
	assert.Equal(t, "LightGBM", d.Results.BestModel)

	types := e.events.types()
	assert.Equal(t, []models.EventType{
		models.EventSessionUploaded, models.EventSessionTraining, models.EventSessionTrained,
	}, types)
	last := e.events.events[len(e.events.events)-1]
	require.NotNil(t, last.ProfitImprovementPct)
	assert.Equal(t, "150", last.ProfitImprovementPct.String())

	_, ok, err := e.store.Lock(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok, "training lock is released afterwards")
}

func TestTrainRejectsConcurrentRun(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)

	_, ok, err := e.store.Lock(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.wf.Train(context.Background(), id, 0)
	assert.ErrorIs(t, err, models.ErrTrainingInProgress)
	assert.Equal(t, 0, e.backend.trainCalls)
}

func TestTrainFailureMarksSession(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	e.backend.trainErr = models.ErrBackendUnavailable

	_, err := e.wf.Train(context.Background(), id, 0)
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)

	sess, err := e.wf.Session(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, sess.Status)
	assert.Contains(t, sess.Error, "unavailable")
	assert.Contains(t, e.events.types(), models.EventSessionFailed)

	_, err = e.wf.Financial(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	e.backend.trainErr = nil
	_, err = e.wf.Train(context.Background(), id, 0)
	assert.NoError(t, err, "a failed run can be retried")
}

func TestFailedRetrainHidesPreviousResult(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	ctx := context.Background()

	_, err := e.wf.Train(ctx, id, 0)
	require.NoError(t, err)

	e.backend.trainErr = models.ErrBackendUnavailable
	_, err = e.wf.Train(ctx, id, 0)
	require.ErrorIs(t, err, models.ErrBackendUnavailable)

	_, err = e.wf.Results(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotTrained)
	_, err = e.wf.Financial(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotTrained)
	_, err = e.wf.Dashboard(ctx, id, 0)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	sess, err := e.wf.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, sess.Status)
}

func TestRetrainInProgressHidesPreviousResult(t *testing.T) {
	q := &fakeQueue{}
	e := newEnv(t, WithJobQueue(q))
	id := e.upload(t)
	ctx := context.Background()

	_, err := e.wf.Train(ctx, id, 0)
	require.NoError(t, err)

	_, err = e.wf.StartTraining(ctx, id, "req-2")
	require.NoError(t, err)

	_, err = e.wf.Results(ctx, id)
	assert.ErrorIs(t, err, models.ErrTrainingInProgress)
	_, err = e.wf.Recommendations(ctx, id, 0)
	assert.ErrorIs(t, err, models.ErrTrainingInProgress)

	require.NoError(t, NewTrainJob(e.wf).Handle(ctx, q.payload))
	_, err = e.wf.Results(ctx, id)
	assert.NoError(t, err)
}

func TestStaleTrainJobKeepsNewerLock(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	ctx := context.Background()

	token, ok, err := e.store.Lock(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	stale := models.TrainJobPayload{SessionID: id, LockToken: "expired-run"}
	require.NoError(t, NewTrainJob(e.wf).Handle(ctx, stale))

	_, ok, _ = e.store.Lock(ctx, id)
	assert.False(t, ok, "a job carrying an old token leaves the current holder's lock")

	require.NoError(t, e.store.Unlock(ctx, id, token))
	_, ok, _ = e.store.Lock(ctx, id)
	assert.True(t, ok)
}

func TestViewsRequireTrainedSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.wf.Results(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	id := e.upload(t)
	_, err = e.wf.Results(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotTrained)
	_, err = e.wf.Recommendations(ctx, id, 5)
	assert.ErrorIs(t, err, models.ErrNotTrained)
	_, err = e.wf.TimeSeries(ctx, id, "A")
	assert.ErrorIs(t, err, models.ErrNotTrained)
}

func TestDashboardDegradesOnSecondaryFailures(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	_, err := e.wf.Train(context.Background(), id, 0)
	require.NoError(t, err)

	e.backend.productsErr = models.ErrBackendUnavailable
	e.backend.featuresErr = errors.New("boom")

	d, err := e.wf.Dashboard(context.Background(), id, 5)
	require.NoError(t, err)
	assert.False(t, d.Recommendations.ProductsAvailable)
	assert.Empty(t, d.Recommendations.Products)
	assert.Nil(t, d.FeatureImportance)
	require.NotNil(t, d.Financial)
	assert.Equal(t, "150", d.Recommendations.Outcomes.ProfitImprovementPct.String())
}

func TestDashboardHonoursCancellation(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	_, err := e.wf.Train(context.Background(), id, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sess, err := e.store.Get(ctx, id)
	require.NoError(t, err)
	cancel()

	_, err = e.wf.dashboard(ctx, sess, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartTrainingWithoutQueue(t *testing.T) {
	e := newEnv(t)
	id := e.upload(t)
	assert.False(t, e.wf.AsyncEnabled())
	_, err := e.wf.StartTraining(context.Background(), id, "req")
	assert.ErrorIs(t, err, models.ErrAsyncDisabled)
}

func TestStartTrainingThroughQueue(t *testing.T) {
	q := &fakeQueue{}
	e := newEnv(t, WithJobQueue(q))
	id := e.upload(t)
	ctx := context.Background()

	sess, err := e.wf.StartTraining(ctx, id, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTraining, sess.Status)
	assert.Equal(t, TrainJobType, q.msgType)

	_, err = e.wf.Train(ctx, id, 0)
	assert.ErrorIs(t, err, models.ErrTrainingInProgress, "queued training holds the lock")

	_, err = e.wf.Results(ctx, id)
	assert.ErrorIs(t, err, models.ErrTrainingInProgress)

	job := NewTrainJob(e.wf)
	require.NoError(t, job.Handle(ctx, q.payload))

	res, err := e.wf.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "LightGBM", res.BestModel)

	_, ok, err := e.store.Lock(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStartTrainingEnqueueFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	e := newEnv(t, WithJobQueue(q))
	id := e.upload(t)

	_, err := e.wf.StartTraining(context.Background(), id, "")
	assert.ErrorContains(t, err, "redis down")

	sess, err := e.wf.Session(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, sess.Status)

	_, ok, _ := e.store.Lock(context.Background(), id)
	assert.True(t, ok)
}

func TestTrainJobIgnoresUnknownSession(t *testing.T) {
	e := newEnv(t)
	job := NewTrainJob(e.wf)
	assert.NoError(t, job.Handle(context.Background(), models.TrainJobPayload{SessionID: "gone"}))
	assert.Error(t, job.Handle(context.Background(), models.TrainJobPayload{}))
	assert.Equal(t, 0, e.backend.trainCalls)
}
