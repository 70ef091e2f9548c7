package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"UMKMForecast/internal/domain/models"
	drepo "UMKMForecast/internal/domain/repository"
	domsvc "UMKMForecast/internal/domain/service"
	"UMKMForecast/internal/services/recommend"
	"UMKMForecast/internal/services/scenario"
	"UMKMForecast/pkg/logger"
	"UMKMForecast/pkg/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForecastWorkflow drives a session through upload, training and the
// analysis views built from the stored training result.
type ForecastWorkflow struct {
	backend     domsvc.ForecastBackend
	store       drepo.SessionStore
	events      drepo.EventPublisher
	jobs        drepo.JobQueue
	metrics     drepo.Metrics
	recommender *recommend.Recommender
	logger      *logger.Logger
	now         func() time.Time
}

// WorkflowOption configures ForecastWorkflow.
type WorkflowOption func(*ForecastWorkflow)

// WithEvents publishes session status changes to p.
func WithEvents(p drepo.EventPublisher) WorkflowOption {
	return func(w *ForecastWorkflow) { w.events = p }
}

// WithJobQueue enables asynchronous training.
func WithJobQueue(q drepo.JobQueue) WorkflowOption {
	return func(w *ForecastWorkflow) { w.jobs = q }
}

// WithMetrics records training outcomes on m.
func WithMetrics(m drepo.Metrics) WorkflowOption {
	return func(w *ForecastWorkflow) { w.metrics = m }
}

// WithRecommender overrides the default recommender.
func WithRecommender(r *recommend.Recommender) WorkflowOption {
	return func(w *ForecastWorkflow) { w.recommender = r }
}

// WithWorkflowLogger sets the workflow logger.
func WithWorkflowLogger(l *logger.Logger) WorkflowOption {
	return func(w *ForecastWorkflow) { w.logger = l }
}

// NewForecastWorkflow creates the workflow. Events, jobs and metrics are optional.
func NewForecastWorkflow(backend domsvc.ForecastBackend, store drepo.SessionStore, opts ...WorkflowOption) *ForecastWorkflow {
	w := &ForecastWorkflow{
		backend:     backend,
		store:       store,
		metrics:     noopMetrics{},
		recommender: recommend.New(0),
		logger:      logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.metrics == nil {
		w.metrics = noopMetrics{}
	}
	return w
}

// AsyncEnabled reports whether StartTraining can be used.
func (w *ForecastWorkflow) AsyncEnabled() bool { return w.jobs != nil }

// Upload forwards a CSV to the backend and records the new session.
func (w *ForecastWorkflow) Upload(ctx context.Context, filename string, r io.Reader) (*models.Session, error) {
	if !util.HasExt(filename, ".csv") {
		return nil, fmt.Errorf("%w: %q is not a .csv file", models.ErrInvalidUpload, filename)
	}

	summary, err := w.backend.Upload(ctx, filename, r)
	if err != nil {
		w.metrics.RecordError("upload")
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	now := w.now().UTC()
	sess := &models.Session{
		ID:        summary.SessionID,
		Filename:  filename,
		Status:    models.StatusUploaded,
		Upload:    &summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	w.logger.Info("session uploaded",
		logger.String("session_id", sess.ID),
		logger.String("filename", filename),
		logger.Int("records", summary.TotalRecords),
		logger.Int("products", summary.Products.Count))
	w.publish(ctx, models.EventSessionUploaded, sess, nil)
	return sess, nil
}

// Train runs training synchronously and returns the full dashboard.
func (w *ForecastWorkflow) Train(ctx context.Context, id string, top int) (models.Dashboard, error) {
	sess, token, err := w.begin(ctx, id)
	if err != nil {
		return models.Dashboard{}, err
	}
	defer w.unlock(ctx, id, token)

	if err := w.train(ctx, sess); err != nil {
		return models.Dashboard{}, err
	}
	return w.dashboard(ctx, sess, top)
}

// StartTraining marks the session as training and hands it to the job queue.
// The training lock stays held until the job finishes.
func (w *ForecastWorkflow) StartTraining(ctx context.Context, id, requestID string) (*models.Session, error) {
	if w.jobs == nil {
		return nil, models.ErrAsyncDisabled
	}

	sess, token, err := w.begin(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := models.TrainJobPayload{SessionID: id, RequestID: requestID, LockToken: token}
	if err := w.jobs.Enqueue(ctx, TrainJobType, payload); err != nil {
		w.fail(ctx, sess, err)
		w.unlock(ctx, id, token)
		return nil, fmt.Errorf("enqueue training %s: %w", id, err)
	}

	w.logger.Info("training enqueued", logger.String("session_id", id), logger.String("request_id", requestID))
	summary := sess.Summary()
	return &summary, nil
}

// RunTraining executes a queued training. Training failures are recorded on
// the session and not returned; only errors worth a queue retry are.
// token is the lock token taken by StartTraining.
func (w *ForecastWorkflow) RunTraining(ctx context.Context, id, token string) error {
	sess, err := w.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			w.logger.Warn("queued training for unknown session", logger.String("session_id", id))
			w.unlock(ctx, id, token)
			return nil
		}
		return err
	}
	defer w.unlock(ctx, id, token)

	if err := w.train(ctx, sess); err != nil {
		w.logger.Warn("async training failed", logger.String("session_id", id), logger.Error(err))
	}
	return nil
}

// begin takes the training lock and moves the session to training.
func (w *ForecastWorkflow) begin(ctx context.Context, id string) (*models.Session, string, error) {
	sess, err := w.store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	token, ok, err := w.store.Lock(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", models.ErrTrainingInProgress
	}

	sess.Status = models.StatusTraining
	sess.Error = ""
	sess.UpdatedAt = w.now().UTC()
	if err := w.store.Save(ctx, sess); err != nil {
		w.unlock(ctx, id, token)
		return nil, "", err
	}
	w.publish(ctx, models.EventSessionTraining, sess, nil)
	return sess, token, nil
}

func (w *ForecastWorkflow) train(ctx context.Context, sess *models.Session) error {
	start := w.now()
	res, err := w.backend.Train(ctx, sess.ID)
	elapsed := w.now().Sub(start)
	if err != nil {
		w.metrics.RecordTraining("failed", elapsed.Seconds())
		w.metrics.RecordError("train")
		w.fail(ctx, sess, err)
		return fmt.Errorf("train %s: %w", sess.ID, err)
	}

	now := w.now().UTC()
	sess.Result = &res
	sess.Status = models.StatusTrained
	sess.Error = ""
	sess.UpdatedAt = now
	sess.TrainedAt = &now

	// the outcome is persisted even when the caller has gone away
	if err := w.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		return err
	}
	w.metrics.RecordTraining("trained", elapsed.Seconds())

	var pct *decimal.Decimal
	if fa, err := scenario.Analyze(&res); err == nil {
		pct = &fa.Comparison.ProfitImprovementPct
		w.metrics.RecordProfitImprovement(res.BestModel, pct.InexactFloat64())
	}

	w.logger.Info("session trained",
		logger.String("session_id", sess.ID),
		logger.String("best_model", res.BestModel),
		logger.Duration("elapsed", elapsed))
	w.publish(ctx, models.EventSessionTrained, sess, pct)
	return nil
}

func (w *ForecastWorkflow) fail(ctx context.Context, sess *models.Session, cause error) {
	sess.Status = models.StatusFailed
	sess.Error = cause.Error()
	sess.UpdatedAt = w.now().UTC()
	if err := w.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		w.logger.Error("save failed session", logger.String("session_id", sess.ID), logger.Error(err))
	}
	w.publish(ctx, models.EventSessionFailed, sess, nil)
}

func (w *ForecastWorkflow) unlock(ctx context.Context, id, token string) {
	if err := w.store.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
		w.logger.Warn("release training lock", logger.String("session_id", id), logger.Error(err))
	}
}

func (w *ForecastWorkflow) publish(ctx context.Context, t models.EventType, sess *models.Session, profitPct *decimal.Decimal) {
	if w.events == nil {
		return
	}
	e := models.SessionEvent{
		ID:                   uuid.NewString(),
		Type:                 t,
		SessionID:            sess.ID,
		Status:               sess.Status,
		Error:                sess.Error,
		OccurredAt:           w.now().UTC(),
		ProfitImprovementPct: profitPct,
	}
	if sess.Result != nil {
		e.BestModel = sess.Result.BestModel
	}
	if err := w.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		w.metrics.RecordError("publish")
		w.logger.Warn("publish session event",
			logger.String("session_id", sess.ID),
			logger.String("event", string(t)),
			logger.Error(err))
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordBackendCall(string, string, float64) {}
func (noopMetrics) RecordError(string)                        {}
func (noopMetrics) RecordTraining(string, float64)            {}
func (noopMetrics) RecordProfitImprovement(string, float64)   {}
