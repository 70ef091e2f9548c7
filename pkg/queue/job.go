package queue

import "context"

// Job handles one message type. Handle receives the payload as json.RawMessage;
// decode it with ParsePayload.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload interface{}) error
}
