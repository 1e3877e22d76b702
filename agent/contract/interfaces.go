package contract

import "context"

// ModelCaller is the single request/response boundary to the language model.
// One call, no implicit retry; cancellation via ctx.
type ModelCaller interface {
	Call(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

// Memory is a capacity-bounded, single-owner text buffer. All operations
// report their outcome as a status string; not-found and ambiguous-match
// conditions never surface as errors across this boundary.
type Memory interface {
	Read() string
	Write(content string) string
	Edit(oldString, newString string) string
	Status() string
	Compress() string

	// Peek returns the raw buffer without the empty-memory placeholder.
	Peek() string
}

type Archive interface {
	SaveRecord(ctx context.Context, rec *PlanRecord) error
}

type Notifier interface {
	PublishPlan(ctx context.Context, rec PlanRecord) error
}
