// Package worker receives durable queue deliveries and decides, per
// message, whether to process, skip, or reject. The decision is explicit so
// it can be asserted in tests independently of the broker client.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/queue"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/service"
)

// Decision is the consumer's verdict on one delivery.
type Decision int

const (
	// DecisionAck acknowledges the message; it will not be redelivered.
	DecisionAck Decision = iota
	// DecisionNack rejects the message; the broker redelivers or
	// dead-letters it per its retry policy.
	DecisionNack
	// DecisionDefer leaves the message unresolved: another worker owns the
	// job right now, so redeliver later without starting duplicate work.
	DecisionDefer
)

// ErrStillProcessing is the retryable error a deferred delivery maps to on
// the asynq side.
var ErrStillProcessing = errors.New("job is in flight on another worker")

// StatusStore is the external status record lookup/update contract the
// consumer needs for idempotency and failure recording.
type StatusStore interface {
	GetStatusByID(ctx context.Context, id string) (*model.Job, error)
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error
}

// Processor runs the pipeline for one validated job.
type Processor interface {
	Run(ctx context.Context, job *model.PipelineJob) error
}

// Consumer owns the per-delivery decision logic and the worker entrypoints.
type Consumer struct {
	store     StatusStore
	processor Processor
}

func NewConsumer(store StatusStore, processor Processor) *Consumer {
	return &Consumer{store: store, processor: processor}
}

// ProcessTask adapts HandleMessage to the asynq handler contract: ack is a
// nil return, everything else an error that schedules redelivery.
func (c *Consumer) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var env queue.TaskEnvelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		log.Printf("Nacking undecodable task envelope: %v", err)
		return fmt.Errorf("malformed task envelope: %w", err)
	}

	decision, err := c.HandleMessage(ctx, env.Payload, env.RequestID)
	switch decision {
	case DecisionAck:
		return nil
	case DecisionDefer:
		return ErrStillProcessing
	default:
		if err == nil {
			err = errors.New("message rejected")
		}
		return err
	}
}

// HandleMessage decides what to do with one delivered message body.
//
// Malformed bodies are nacked without touching any status record: the job
// shape is unknown, so no record can be safely targeted. A job whose status
// is already finished is acked and skipped; one currently in flight is
// deferred. Anything else is processed, and a processing error runs the
// failure handler before the nack.
func (c *Consumer) HandleMessage(ctx context.Context, body []byte, requestID string) (Decision, error) {
	var job model.PipelineJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Printf("[%s] Nacking malformed message body: %v", requestID, err)
		return DecisionNack, fmt.Errorf("malformed message body: %w", err)
	}

	id := job.Identity()
	if id == "" {
		log.Printf("[%s] Nacking message without job identity", requestID)
		return DecisionNack, errors.New("message carries no reportId or firebaseJobId")
	}

	record, err := c.store.GetStatusByID(ctx, id)
	if err != nil {
		log.Printf("[%s] Status lookup failed for job %s: %v", requestID, id, err)
		return DecisionNack, fmt.Errorf("status lookup for job %s: %w", id, err)
	}
	if record != nil {
		if record.Status == model.StatusFinished {
			log.Printf("[%s] Job %s already finished, acking redelivery", requestID, id)
			return DecisionAck, nil
		}
		if record.Status.InFlight() {
			log.Printf("[%s] Job %s is %s on another worker, deferring", requestID, id, record.Status)
			return DecisionDefer, nil
		}
	}

	if err := c.safeProcess(ctx, &job); err != nil {
		c.ProcessJobFailure(ctx, &job, err, requestID)
		return DecisionNack, err
	}
	return DecisionAck, nil
}

// ProcessJob delegates to the orchestrator without catching anything; the
// error propagates to the nack path above.
func (c *Consumer) ProcessJob(ctx context.Context, job *model.PipelineJob) error {
	return c.processor.Run(ctx, job)
}

// safeProcess coerces a panic from the processing path into an ordinary
// error so the broker sees a plain failed task.
func (c *Consumer) safeProcess(ctx context.Context, job *model.PipelineJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job processor: %v", r)
		}
	}()
	return c.ProcessJob(ctx, job)
}

// ProcessJobFailure records the failure on the job's status record. It is
// best-effort and never returns an error: it runs inside an already-failing
// path. A job with no identity is a no-op; a missing status record is
// swallowed silently (nothing useful to report).
func (c *Consumer) ProcessJobFailure(ctx context.Context, job *model.PipelineJob, procErr error, requestID string) {
	if job == nil {
		return
	}
	id := job.Identity()
	if id == "" {
		return
	}

	log.Printf("[%s] Job %s failed: %v", requestID, id, procErr)
	if err := c.store.UpdateStatus(ctx, id, model.StatusFailed, procErr.Error()); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return
		}
		log.Printf("[%s] Failed to record failure for job %s: %v", requestID, id, err)
	}
}
