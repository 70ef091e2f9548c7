package models

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotTrained         = errors.New("session has not been trained")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrNoFinancialData    = errors.New("financial data not available")
	ErrAsyncDisabled      = errors.New("asynchronous training is not enabled")
	ErrBackendUnavailable = errors.New("forecast backend unavailable")
	ErrInvalidUpload      = errors.New("invalid upload")
)
