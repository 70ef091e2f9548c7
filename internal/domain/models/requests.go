package models

// Requests for the session HTTP endpoints.

type SessionRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=128"`
}

type TrainRequest struct {
	ID    string `param:"id" json:"id" validate:"required,max=128"`
	Async bool   `query:"async" json:"async"`
}

type ViewRequest struct {
	ID  string `param:"id" json:"id" validate:"required,max=128"`
	Top int    `query:"top" json:"top" default:"5" validate:"gte=1,lte=50"`
}

type TimeSeriesRequest struct {
	ID      string `param:"id" json:"id" validate:"required,max=128"`
	Product string `param:"product" json:"product" validate:"required,max=256"`
}

// TrainJobPayload is the queue payload for asynchronous training.
type TrainJobPayload struct {
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id,omitempty"`
	LockToken string `json:"lock_token,omitempty"`
}
