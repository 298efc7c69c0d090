package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/boothlabs/igpublisher/internal/service"
	"github.com/hibiken/asynq"
)

func (j *Queue) HandleSweepTask(ctx context.Context, task *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	summary, err := j.sweeper.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrConfiguration) {
			// retrying cannot fix missing credentials
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	slog.Info("sweep task finished", "triggered_by", payload.TriggeredBy, "processed", summary.Processed)
	return nil
}
