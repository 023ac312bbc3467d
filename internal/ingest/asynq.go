package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskIngest = "file:ingest"
	asynqQueue = "ingest"
)

// AsynqQueue hands jobs to a Redis backed asynq server, possibly in another
// process. Jobs are never retried, a failed run is final.
type AsynqQueue struct {
	client *asynq.Client
}

func NewAsynqQueue(opt asynq.RedisConnOpt) *AsynqQueue {
	return &AsynqQueue{client: asynq.NewClient(opt)}
}

func (q *AsynqQueue) Submit(ctx context.Context, job *Job) error {
	if job.Source != nil {
		return errors.New("jobs with an inline source can't be queued remotely")
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job, %w", err)
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskIngest, payload),
		asynq.Queue(asynqQueue),
		asynq.MaxRetry(0),
		asynq.TaskID(job.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job, %w", err)
	}

	zap.L().Debug("New ingestion job enqueued", zap.String("task_id", info.ID), zap.Uint("file_id", job.FileID))
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// NewAsynqServer returns a server running queued jobs through o. Start it
// with Run or Start and stop it with Shutdown.
func NewAsynqServer(opt asynq.RedisConnOpt, o *Orchestrator, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{asynqQueue: 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskIngest, func(ctx context.Context, t *asynq.Task) error {
		var job Job
		if err := json.Unmarshal(t.Payload(), &job); err != nil {
			return fmt.Errorf("failed to decode job, %w: %w", err, asynq.SkipRetry)
		}

		o.Run(context.WithoutCancel(ctx), &job)
		return nil
	})

	return srv, mux
}
