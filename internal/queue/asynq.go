package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
)

const (
	queueName     = "reports"
	maxRetry      = 5
	taskTimeout   = 30 * time.Minute
	taskRetention = 24 * time.Hour
)

// AsynqQueue implements Queue over a durable Redis-backed broker. Delivery
// is at-least-once; the handler's return value drives ack/nack.
type AsynqQueue struct {
	client      *asynq.Client
	server      *asynq.Server
	redisOpt    asynq.RedisClientOpt
	env         string
	concurrency int

	// Handler consumes deliveries; set it before Listen. It is a field
	// rather than a constructor argument because the handler's collaborators
	// (status store, orchestrator) are built on top of this queue.
	Handler asynq.Handler

	provisionOnce sync.Once
	provisionErr  error
}

func NewAsynqQueue(redisOpt asynq.RedisClientOpt, env string, concurrency int) *AsynqQueue {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &AsynqQueue{
		client:      asynq.NewClient(redisOpt),
		redisOpt:    redisOpt,
		env:         env,
		concurrency: concurrency,
	}
}

// Enqueue serializes the job, attaches trace attributes, and publishes.
// Publish confirmation is awaited; both the attempt and the confirmation
// are logged.
func (q *AsynqQueue) Enqueue(ctx context.Context, job *model.PipelineJob, opts *EnqueueOptions) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	env := TaskEnvelope{Payload: payload}
	if opts != nil {
		env.RequestID = opts.RequestID
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal task envelope: %w", err)
	}

	log.Printf("[%s] Enqueueing job %s", env.RequestID, job.Identity())
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeReport, data),
		asynq.Queue(queueName),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
		asynq.Retention(taskRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.Identity(), err)
	}

	log.Printf("[%s] Enqueued job %s as task %s on queue %s", env.RequestID, job.Identity(), info.ID, info.Queue)
	return nil
}

// Listen provisions the broker if needed, registers the handler, and starts
// the server. It returns once the server is accepting deliveries.
func (q *AsynqQueue) Listen(ctx context.Context) error {
	if q.Handler == nil {
		return errors.New("queue handler not set")
	}
	if err := q.ensureProvisioned(ctx); err != nil {
		return err
	}

	srv := asynq.NewServer(q.redisOpt, asynq.Config{
		Concurrency: q.concurrency,
		Queues: map[string]int{
			queueName: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeReport, q.Handler)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start queue server: %w", err)
	}
	q.server = srv
	log.Printf("Listening on queue %q (concurrency %d)", queueName, q.concurrency)
	return nil
}

// Close stops accepting new deliveries, waits for in-flight handlers, and
// releases the client.
func (q *AsynqQueue) Close() error {
	if q.server != nil {
		q.server.Shutdown()
	}
	return q.client.Close()
}

// ensureProvisioned lazily bootstraps the broker outside production: it
// verifies the redis connection and records the queue registration once per
// instance, idempotently across processes via SETNX.
func (q *AsynqQueue) ensureProvisioned(ctx context.Context) error {
	q.provisionOnce.Do(func() {
		if q.env == "production" {
			return
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     q.redisOpt.Addr,
			Password: q.redisOpt.Password,
			DB:       q.redisOpt.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			q.provisionErr = fmt.Errorf("broker unreachable: %w", err)
			return
		}

		created, err := rdb.SetNX(ctx, "queues:"+queueName+":provisioned", time.Now().Unix(), 0).Result()
		if err != nil {
			q.provisionErr = fmt.Errorf("failed to register queue %q: %w", queueName, err)
			return
		}
		if created {
			log.Printf("Provisioned queue %q", queueName)
		}
	})
	return q.provisionErr
}
