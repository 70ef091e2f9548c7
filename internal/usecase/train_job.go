package usecase

import (
	"context"
	"fmt"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/pkg/queue"
)

// TrainJobType is the queue message type for asynchronous training.
const TrainJobType = "forecast.train"

// TrainJob runs queued trainings through the workflow.
type TrainJob struct {
	workflow *ForecastWorkflow
}

func NewTrainJob(w *ForecastWorkflow) *TrainJob { return &TrainJob{workflow: w} }

func (j *TrainJob) Name() string { return "train-session" }

func (j *TrainJob) Type() string { return TrainJobType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.TrainJobPayload](payload)
	if err != nil {
		return err
	}
	if p.SessionID == "" {
		return fmt.Errorf("train job: empty session id")
	}
	return j.workflow.RunTraining(ctx, p.SessionID, p.LockToken)
}
