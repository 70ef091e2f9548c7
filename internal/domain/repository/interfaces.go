package repository

import (
	"context"

	"UMKMForecast/internal/domain/models"
)

// SessionStore keeps session snapshots between requests.
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	// Get returns models.ErrSessionNotFound when the session is unknown or expired.
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// Lock acquires the training lock; false means another run holds it.
	// The returned token must be handed back to Unlock.
	Lock(ctx context.Context, id string) (token string, ok bool, err error)
	Unlock(ctx context.Context, id, token string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e models.SessionEvent) error
	Close() error
}

type JobQueue interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

type Metrics interface {
	RecordBackendCall(op, result string, seconds float64)
	RecordError(kind string)
	RecordTraining(outcome string, seconds float64)
	RecordProfitImprovement(model string, pct float64)
}
