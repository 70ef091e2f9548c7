package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	StatusUploaded SessionStatus = "uploaded"
	StatusTraining SessionStatus = "training"
	StatusTrained  SessionStatus = "trained"
	StatusFailed   SessionStatus = "failed"
)

// Session is the server-side state of one upload/train cycle.
type Session struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename,omitempty"`
	Status    SessionStatus   `json:"status"`
	Upload    *UploadSummary  `json:"upload,omitempty"`
	Result    *TrainingResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	TrainedAt *time.Time      `json:"trained_at,omitempty"`
}

// Summary returns a copy without the training payload.
func (s Session) Summary() Session {
	s.Result = nil
	return s
}

type EventType string

const (
	EventSessionUploaded EventType = "session.uploaded"
	EventSessionTraining EventType = "session.training"
	EventSessionTrained  EventType = "session.trained"
	EventSessionFailed   EventType = "session.failed"
)

// SessionEvent is published on every session status change.
type SessionEvent struct {
	ID                   string           `json:"id"`
	Type                 EventType        `json:"type"`
	SessionID            string           `json:"session_id"`
	Status               SessionStatus    `json:"status"`
	BestModel            string           `json:"best_model,omitempty"`
	ProfitImprovementPct *decimal.Decimal `json:"profit_improvement_pct,omitempty"`
	Error                string           `json:"error,omitempty"`
	OccurredAt           time.Time        `json:"occurred_at"`
}

// Dashboard bundles every view of a trained session.
type Dashboard struct {
	Session           Session              `json:"session"`
	Results           ModelResults         `json:"results"`
	Financial         *FinancialAnalysis   `json:"financial,omitempty"`
	Recommendations   RecommendationReport `json:"recommendations"`
	FeatureImportance *FeatureImportance   `json:"feature_importance,omitempty"`
}
