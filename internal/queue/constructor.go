package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueSweep queues a sweep unless one is already queued or running.
// uniqueFor bounds how long that lock is held if the worker never finishes.
func EnqueueSweep(asynqClient *asynq.Client, payload SweepPayload, uniqueFor time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSweepPosts, taskPayload)

	info, err := asynqClient.Enqueue(task, asynq.Unique(uniqueFor), asynq.MaxRetry(0))
	if err != nil {
		return err
	}

	slog.Info("sweep task enqueued", "task_id", info.ID, "triggered_by", payload.TriggeredBy)
	return nil
}
