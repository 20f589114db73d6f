package queue

import (
	"context"
	"encoding/json"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
)

// TaskTypeReport is the asynq task type for report generation jobs.
const TaskTypeReport = "report:generate"

// EnqueueOptions carries optional broker attributes for a published message.
type EnqueueOptions struct {
	RequestID string
}

// Queue is the narrow broker contract. Listen returns once the subscription
// is active, not once messages stop; Close releases it gracefully.
type Queue interface {
	Enqueue(ctx context.Context, job *model.PipelineJob, opts *EnqueueOptions) error
	Listen(ctx context.Context) error
	Close() error
}

// TaskEnvelope is the broker message body: the serialized PipelineJob plus
// trace attributes.
type TaskEnvelope struct {
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}
