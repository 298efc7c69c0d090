package queue

import (
	"context"

	"github.com/boothlabs/igpublisher/internal/transfer"
)

// Sweeper runs one pass over the due scheduled posts.
type Sweeper interface {
	Run(ctx context.Context) (*transfer.BatchSummary, error)
}

type Queue struct {
	sweeper Sweeper
}

func NewQueue(sweeper Sweeper) *Queue {
	return &Queue{
		sweeper: sweeper,
	}
}

const TaskTypeSweepPosts = "posts:sweep"

type SweepPayload struct {
	TriggeredBy string `json:"triggered_by"`
}
